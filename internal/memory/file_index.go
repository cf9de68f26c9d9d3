package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/palaver-ai/pa/internal/pkg/logs"
)

const (
	defaultLimit = 10

	// maxSnippetRunes bounds how much of a matching paragraph comes back.
	maxSnippetRunes = 400
)

var _ Index = (*fileIndex)(nil)

// fileIndex is a keyword scanner over workspace markdown plus any extra
// configured paths. No persistent state: every search walks the files,
// which keeps results consistent with what the agent just wrote.
type fileIndex struct {
	roots []string
}

// NewFileIndex builds an index over workspace and extraPaths.
func NewFileIndex(workspace string, extraPaths []string) Index {
	roots := make([]string, 0, len(extraPaths)+1)
	if workspace != "" {
		roots = append(roots, workspace)
	}
	roots = append(roots, extraPaths...)
	return &fileIndex{roots: roots}
}

func (f *fileIndex) Init(ctx context.Context) error {
	for _, root := range f.roots {
		if _, err := os.Stat(root); err != nil {
			logs.CtxWarn(ctx, "[memory] search root %s unavailable: %v", root, err)
		}
	}
	return nil
}

func (f *fileIndex) Close() error { return nil }

// Search scores paragraphs by how many query terms they contain,
// case-insensitive. Results come back best first.
func (f *fileIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	terms := splitTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	var hits []Hit
	for _, root := range f.roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits = append(hits, scanRoot(root, terms)...)
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func scanRoot(root string, terms []string) []Hit {
	var hits []Hit
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		hits = append(hits, scanFile(path, terms)...)
		return nil
	})
	return hits
}

// scanFile scores each paragraph of a markdown file against the terms.
func scanFile(path string, terms []string) []Hit {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var (
		hits      []Hit
		paragraph []string
	)
	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		text := strings.Join(paragraph, "\n")
		paragraph = nil

		score := scoreParagraph(text, terms)
		if score > 0 {
			hits = append(hits, Hit{Path: path, Snippet: clipSnippet(text), Score: score})
		}
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		paragraph = append(paragraph, line)
	}
	flush()
	return hits
}

// scoreParagraph is matched terms over total terms, so a paragraph
// containing every term scores 1.0.
func scoreParagraph(text string, terms []string) float64 {
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return float64(matched) / float64(len(terms))
}

func splitTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := fields[:0]
	for _, f := range fields {
		if len(f) >= 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func clipSnippet(text string) string {
	runes := []rune(text)
	if len(runes) <= maxSnippetRunes {
		return text
	}
	return string(runes[:maxSnippetRunes]) + "..."
}
