// Package memory provides search over the assistant's long-lived notes.
// The workspace markdown files are the ground truth; the index only has
// to find the right paragraph, not understand it.
package memory

import "context"

// Hit is one search result.
type Hit struct {
	Path    string  `json:"path"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Index is the search contract the daemon wires into agent options.
type Index interface {
	Init(ctx context.Context) error
	Search(ctx context.Context, query string, limit int) ([]Hit, error)
	Close() error
}
