package provider

import (
	"context"
	"fmt"
	"sync"
)

// Adapter delivers a request through one provider. Expected failures are
// returned as *CallError.
type Adapter interface {
	Fulfill(ctx context.Context, p Provider, req Request) (*Result, error)
}

type AdapterFunc func(ctx context.Context, p Provider, req Request) (*Result, error)

func (f AdapterFunc) Fulfill(ctx context.Context, p Provider, req Request) (*Result, error) {
	return f(ctx, p, req)
}

// Adapters maps a provider kind to the adapter that speaks its protocol.
type Adapters struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func NewAdapters() *Adapters {
	return &Adapters{adapters: make(map[string]Adapter)}
}

func (a *Adapters) Register(kind string, adapter Adapter) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.adapters[kind] = adapter
}

func (a *Adapters) Lookup(kind string) (Adapter, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	adapter, ok := a.adapters[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return adapter, nil
}

// Fulfill dispatches to the adapter registered for p.Kind.
func (a *Adapters) Fulfill(ctx context.Context, p Provider, req Request) (*Result, error) {
	adapter, err := a.Lookup(p.Kind)
	if err != nil {
		return nil, &CallError{Message: err.Error(), Err: err}
	}
	return adapter.Fulfill(ctx, p, req)
}
