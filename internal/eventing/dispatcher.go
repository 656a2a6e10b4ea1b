// Package eventing hands committed domain events to the outside world.
package eventing

import (
	"context"
	"errors"
	"fmt"

	"github.com/SARVESHVARADKAR123/chatbox/internal/domain"
	"github.com/SARVESHVARADKAR123/chatbox/internal/observability"
)

// Dispatcher delivers released events. It is only ever called after the
// unit of work that raised them has committed.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []domain.Event) error
}

type DispatcherFunc func(ctx context.Context, events []domain.Event) error

func (f DispatcherFunc) Dispatch(ctx context.Context, events []domain.Event) error {
	return f(ctx, events)
}

// Nop drops every event. Used when broadcasting is turned off.
type Nop struct{}

func (Nop) Dispatch(context.Context, []domain.Event) error { return nil }

func (Nop) Name() string { return "nop" }

// Multi dispatches to every member and joins their errors. A failing member
// does not stop the others.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, events []domain.Event) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, events); err != nil {
			observability.EventDispatchFailuresTotal.WithLabelValues(Name(d)).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", Name(d), err))
		}
	}
	return errors.Join(errs...)
}

func (Multi) Name() string { return "multi" }

// Name labels a dispatcher for logs and metrics.
func Name(d Dispatcher) string {
	if n, ok := d.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", d)
}
