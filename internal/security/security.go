// Package security implements the command gate consulted before any shell
// spawn. It classifies a command string as allowed or blocked: segment
// splitting, an allowlist of base command names, command-specific
// validators for the riskiest tools, and containment checks for every
// path the command touches. The gate never returns an error; every
// failure is a block verdict with a human-readable reason.
package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

type Config struct {
	AllowedCommands     []string
	ExtraValidation     []string
	Workspace           string
	DataDir             string
	AdditionalReadDirs  []string
	AdditionalWriteDirs []string
}

// Verdict is the outcome of classifying a command. A blocked verdict
// always carries a reason suitable for showing to the user.
type Verdict struct {
	Allowed bool
	Reason  string
}

func allow() Verdict { return Verdict{Allowed: true} }

func block(format string, args ...any) Verdict {
	return Verdict{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

type Gate struct {
	allowed map[string]struct{}
	extra   map[string]struct{}

	workspace string
	readRoots []string
	writeRoots []string
}

func NewGate(cfg Config) *Gate {
	g := &Gate{
		allowed:   make(map[string]struct{}, len(cfg.AllowedCommands)),
		extra:     make(map[string]struct{}, len(cfg.ExtraValidation)),
		workspace: canonicalRoot(cfg.Workspace),
	}
	for _, name := range cfg.AllowedCommands {
		name = strings.TrimSpace(name)
		if name != "" {
			g.allowed[name] = struct{}{}
		}
	}
	for _, name := range cfg.ExtraValidation {
		name = strings.TrimSpace(name)
		if name != "" {
			g.extra[name] = struct{}{}
		}
	}

	appendRoot := func(roots []string, dir string) []string {
		if root := canonicalRoot(dir); root != "" {
			return append(roots, root)
		}
		return roots
	}

	// Write access implies read access; the read set is a superset.
	g.writeRoots = appendRoot(g.writeRoots, cfg.Workspace)
	g.writeRoots = appendRoot(g.writeRoots, cfg.DataDir)
	for _, dir := range cfg.AdditionalWriteDirs {
		g.writeRoots = appendRoot(g.writeRoots, dir)
	}

	g.readRoots = append(g.readRoots, g.writeRoots...)
	for _, dir := range cfg.AdditionalReadDirs {
		g.readRoots = appendRoot(g.readRoots, dir)
	}

	return g
}

// Classify checks a full command string. Segments joined by ;, &&, ||
// or | are classified independently; one blocked segment blocks the
// whole command.
func (g *Gate) Classify(command string) Verdict {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return block("empty command")
	}

	for _, segment := range splitSegments(trimmed) {
		if v := g.classifySegment(segment); !v.Allowed {
			return v
		}
	}
	return allow()
}

var envAssignPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

func (g *Gate) classifySegment(segment string) Verdict {
	tokens := tokenize(segment)
	if len(tokens) == 0 {
		return allow()
	}

	for _, tok := range tokens {
		if tok == "sudo" {
			return block("sudo is not allowed")
		}
	}

	name := ""
	nameIdx := -1
	for i, tok := range tokens {
		if envAssignPattern.MatchString(tok) || strings.HasPrefix(tok, "-") {
			continue
		}
		name = tok
		nameIdx = i
		break
	}
	if name == "" {
		return block("no command found in %q", segment)
	}

	base := filepath.Base(name)
	if _, ok := g.allowed[base]; !ok {
		return block("command %q is not allowed", base)
	}

	if _, ok := g.extra[base]; ok {
		if v := validateExtra(base, tokens[nameIdx+1:]); !v.Allowed {
			return v
		}
	}

	return g.checkSegmentPaths(base, tokens[nameIdx+1:])
}

// validateExtra runs the command-specific check for members of the
// extra-validation set. Unknown members pass; the allowlist already
// vouched for them.
func validateExtra(base string, args []string) Verdict {
	switch base {
	case "rm":
		return validateRm(args)
	case "kill":
		return validateKill(args)
	default:
		return allow()
	}
}

func validateRm(args []string) Verdict {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		cleaned := filepath.Clean(arg)
		if cleaned == "/" {
			return block("refusing to remove %q", arg)
		}
		// Wildcards at the filesystem root.
		if strings.HasPrefix(arg, "/*") || cleaned == "/*" {
			return block("refusing wildcard removal at root: %q", arg)
		}
	}
	return allow()
}

// Processes below this PID are kernel and init territory.
const minKillablePid = 11

func validateKill(args []string) Verdict {
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			// Signal flags like -9 or -TERM.
			continue
		}
		pid, err := strconv.Atoi(arg)
		if err != nil {
			return block("kill requires numeric pids, got %q", arg)
		}
		if pid < minKillablePid {
			return block("refusing to kill reserved pid %d", pid)
		}
	}
	return allow()
}

// splitSegments splits on the shell separators ;  &&  ||  | while
// respecting single and double quotes.
func splitSegments(command string) []string {
	var segments []string
	var cur strings.Builder
	inSingle, inDouble := false, false

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			segments = append(segments, s)
		}
		cur.Reset()
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			cur.WriteRune(r)
		case r == '"' && !inSingle:
			inDouble = !inDouble
			cur.WriteRune(r)
		case inSingle || inDouble:
			cur.WriteRune(r)
		case r == ';':
			flush()
		case r == '&' && i+1 < len(runes) && runes[i+1] == '&':
			flush()
			i++
		case r == '|':
			flush()
			if i+1 < len(runes) && runes[i+1] == '|' {
				i++
			}
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return segments
}

// tokenize splits a segment on whitespace, honoring quotes (which are
// stripped) and emitting > and >> as standalone tokens so redirect
// targets can be inspected even when written without spaces.
func tokenize(segment string) []string {
	var tokens []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	quoted := false

	flush := func() {
		if cur.Len() > 0 || quoted {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		quoted = false
	}

	runes := []rune(segment)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			quoted = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			quoted = true
		case inSingle || inDouble:
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		case r == '>':
			flush()
			if i+1 < len(runes) && runes[i+1] == '>' {
				tokens = append(tokens, ">>")
				i++
			} else {
				tokens = append(tokens, ">")
			}
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
