package commanding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greet struct{ Name string }

func (greet) CommandName() string { return "Greet" }

type shout struct{}

func (shout) CommandName() string { return "Shout" }

func TestBus_ExecuteRunsHandlerThroughMiddleware(t *testing.T) {
	var order []string
	trace := func(tag string) Middleware {
		return func(next Next) Next {
			return func(ctx context.Context, cmd Command) (any, error) {
				order = append(order, tag)
				return next(ctx, cmd)
			}
		}
	}

	bus := NewBus(trace("outer"), trace("inner"), Logging(), Metrics(), Tracing())
	err := Register(bus, HandlerFunc[greet, string](func(_ context.Context, cmd greet) (string, error) {
		order = append(order, "handler")
		return "hello " + cmd.Name, nil
	}))
	require.NoError(t, err)

	got, err := Execute[greet, string](context.Background(), bus, greet{Name: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "hello alice", got)
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestBus_Errors(t *testing.T) {
	bus := NewBus()
	h := HandlerFunc[greet, string](func(context.Context, greet) (string, error) { return "", nil })
	require.NoError(t, Register(bus, h))

	assert.ErrorIs(t, Register(bus, h), ErrHandlerExists)

	_, err := Execute[shout, string](context.Background(), bus, shout{})
	assert.ErrorIs(t, err, ErrNoHandler)

	_, err = Execute[greet, int](context.Background(), bus, greet{})
	assert.ErrorIs(t, err, ErrUnexpectedResult)
}

func TestBus_ResultSurvivesError(t *testing.T) {
	partial := errors.New("partial")
	bus := NewBus(Logging())
	require.NoError(t, Register(bus, HandlerFunc[greet, *string](func(context.Context, greet) (*string, error) {
		s := "kept"
		return &s, partial
	})))

	got, err := Execute[greet, *string](context.Background(), bus, greet{})
	assert.ErrorIs(t, err, partial)
	require.NotNil(t, got)
	assert.Equal(t, "kept", *got)
}
