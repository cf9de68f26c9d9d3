package security

import (
	"os"
	"path/filepath"
	"strings"
)

// Commands whose positional arguments create, move or delete files.
// Every argument is held to write containment.
var writeCommands = map[string]struct{}{
	"cp":    {},
	"mv":    {},
	"rm":    {},
	"mkdir": {},
	"touch": {},
	"tee":   {},
}

// Commands that read files. Only path-shaped arguments are checked so
// that patterns and other plain words pass through (grep PATTERN file).
var readCommands = map[string]struct{}{
	"cat":  {},
	"grep": {},
	"head": {},
	"tail": {},
	"less": {},
	"more": {},
	"ls":   {},
	"wc":   {},
	"sort": {},
	"uniq": {},
	"cut":  {},
	"stat": {},
	"file": {},
	"du":   {},
	"find": {},
}

type pathMode int

const (
	modeRead pathMode = iota
	modeWrite
)

func (m pathMode) String() string {
	if m == modeWrite {
		return "write"
	}
	return "read"
}

// checkSegmentPaths validates every path the segment touches. Redirect
// targets are write paths regardless of the command in front of them.
func (g *Gate) checkSegmentPaths(base string, args []string) Verdict {
	_, isWrite := writeCommands[base]
	_, isRead := readCommands[base]

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == ">" || arg == ">>" {
			if i+1 < len(args) {
				i++
				if v := g.checkPath(args[i], modeWrite); !v.Allowed {
					return v
				}
			}
			continue
		}
		if strings.HasPrefix(arg, "-") || arg == "" {
			continue
		}
		switch {
		case isWrite:
			if v := g.checkPath(arg, modeWrite); !v.Allowed {
				return v
			}
		case isRead && pathShaped(arg):
			if v := g.checkPath(arg, modeRead); !v.Allowed {
				return v
			}
		}
	}
	return allow()
}

// pathShaped reports whether an argument looks like a filesystem path
// rather than a pattern or plain word.
func pathShaped(arg string) bool {
	return strings.HasPrefix(arg, "/") ||
		strings.HasPrefix(arg, "~") ||
		strings.HasPrefix(arg, ".") ||
		strings.Contains(arg, "/")
}

func (g *Gate) checkPath(raw string, mode pathMode) Verdict {
	resolved := g.resolve(raw)
	roots := g.readRoots
	if mode == modeWrite {
		roots = g.writeRoots
	}
	for _, root := range roots {
		if pathWithin(resolved, root) {
			return allow()
		}
	}
	return block("path %s is outside the allowed directories (%s)", raw, mode)
}

// resolve turns a command argument into an absolute, symlink-resolved
// path. Relative arguments are anchored at the workspace, matching the
// working directory commands execute in.
func (g *Gate) resolve(raw string) string {
	path := expandHome(raw)
	if !filepath.IsAbs(path) {
		path = filepath.Join(g.workspace, path)
	}
	return canonicalize(filepath.Clean(path))
}

// canonicalize resolves symlinks on the deepest existing ancestor of
// path and rejoins the rest, so a link pointing outside the permitted
// roots cannot smuggle a path through containment. Paths that do not
// exist yet still canonicalize through their existing parents.
func canonicalize(path string) string {
	p := path
	var suffix string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			if suffix == "" {
				return resolved
			}
			return filepath.Join(resolved, suffix)
		}
		parent := filepath.Dir(p)
		if parent == p {
			if suffix == "" {
				return p
			}
			return filepath.Join(p, suffix)
		}
		if suffix == "" {
			suffix = filepath.Base(p)
		} else {
			suffix = filepath.Join(filepath.Base(p), suffix)
		}
		p = parent
	}
}

// pathWithin reports whether path sits at or below root.
func pathWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..")
}

func canonicalRoot(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return ""
	}
	abs, err := filepath.Abs(expandHome(dir))
	if err != nil {
		abs = filepath.Clean(dir)
	}
	return canonicalize(abs)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
