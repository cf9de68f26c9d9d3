package adapter

import (
	"context"
	"errors"
	"sync"

	"github.com/bytedance/gg/gmap"

	"github.com/palaver-ai/pa/internal/pkg/logs"
)

// Router dispatches outbound messages to the adapter whose name matches
// the message source. It never reorders or batches.
type Router struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func NewRouter() *Router {
	return &Router{adapters: make(map[string]Adapter, 4)}
}

func (r *Router) Register(a Adapter) error {
	if a == nil {
		return errors.New("adapter cannot be nil")
	}
	if a.Name() == "" {
		return errors.New("adapter name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
	return nil
}

// Get returns the adapter registered under name.
func (r *Router) Get(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// List returns all registered adapters.
func (r *Router) List() []Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return gmap.ToSlice(r.adapters, func(k string, v Adapter) Adapter { return v })
}

// SendResponse routes a reply by msg.Source. An unknown source is a
// logged no-op so stray replies never bring the loop down.
func (r *Router) SendResponse(ctx context.Context, msg *Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}

	a, ok := r.Get(msg.Source)
	if !ok {
		logs.CtxWarn(ctx, "[router] no adapter for source %q, dropping reply", msg.Source)
		return nil
	}
	return a.SendResponse(ctx, msg)
}
