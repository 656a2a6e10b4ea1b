// Package commanding routes commands to their single handler through a chain
// of middleware. Handlers are registered per command type and looked up by
// the command's name.
package commanding

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNoHandler        = errors.New("no handler registered for command")
	ErrHandlerExists    = errors.New("handler already registered for command")
	ErrUnexpectedResult = errors.New("handler returned an unexpected result type")
)

type Command interface {
	CommandName() string
}

type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

type HandlerFunc[C Command, R any] func(ctx context.Context, cmd C) (R, error)

func (f HandlerFunc[C, R]) Handle(ctx context.Context, cmd C) (R, error) {
	return f(ctx, cmd)
}

// Next is the type-erased form every handler is reduced to once registered.
type Next func(ctx context.Context, cmd Command) (any, error)

type Middleware func(next Next) Next

type Bus struct {
	mu         sync.RWMutex
	handlers   map[string]Next
	middleware []Middleware
}

// NewBus builds a bus. Middleware runs in the given order, the first one
// being the outermost.
func NewBus(mw ...Middleware) *Bus {
	return &Bus{
		handlers:   make(map[string]Next),
		middleware: mw,
	}
}

func Register[C Command, R any](b *Bus, h Handler[C, R]) error {
	var zero C
	name := zero.CommandName()

	next := Next(func(ctx context.Context, cmd Command) (any, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("%w: %s got %T", ErrUnexpectedResult, name, cmd)
		}
		return h.Handle(ctx, typed)
	})
	for i := len(b.middleware) - 1; i >= 0; i-- {
		next = b.middleware[i](next)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.handlers[name]; exists {
		return fmt.Errorf("%w: %s", ErrHandlerExists, name)
	}
	b.handlers[name] = next
	return nil
}

// Execute runs cmd through the middleware chain and its handler. The result
// is returned even alongside an error, so handlers can report partial
// success.
func Execute[C Command, R any](ctx context.Context, b *Bus, cmd C) (R, error) {
	var zero R

	b.mu.RLock()
	next, ok := b.handlers[cmd.CommandName()]
	b.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNoHandler, cmd.CommandName())
	}

	out, err := next(ctx, cmd)
	if out == nil {
		return zero, err
	}
	result, ok := out.(R)
	if !ok {
		return zero, fmt.Errorf("%w: %s returned %T", ErrUnexpectedResult, cmd.CommandName(), out)
	}
	return result, err
}
