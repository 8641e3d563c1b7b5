// Package router maps intent ids to in-process handlers that run instead of
// spawning the rendered shell command.
package router

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler executes an intent in-process, streaming text to out.
type Handler interface {
	Handle(ctx context.Context, params map[string]string, out func(string)) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, params map[string]string, out func(string)) error

func (f HandlerFunc) Handle(ctx context.Context, params map[string]string, out func(string)) error {
	return f(ctx, params, out)
}

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to an intent id. Duplicate ids are rejected.
func (r *Registry) Register(intent string, h Handler) error {
	if h == nil {
		return fmt.Errorf("cannot register nil handler for %q", intent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[intent]; exists {
		return fmt.Errorf("handler for %q already registered", intent)
	}
	r.handlers[intent] = h
	return nil
}

// Lookup returns the handler for intent, if any.
func (r *Registry) Lookup(intent string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[intent]
	return h, ok
}

// Intents lists registered intent ids in sorted order.
func (r *Registry) Intents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
