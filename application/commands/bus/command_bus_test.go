package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCommand struct {
	invalid bool
}

func (c testCommand) Validate() error {
	if c.invalid {
		return errors.New("invalid command")
	}
	return nil
}

type otherCommand struct{}

func (otherCommand) Validate() error { return nil }

func TestCommandBus(t *testing.T) {
	ctx := context.Background()

	t.Run("dispatches to the registered handler", func(t *testing.T) {
		bus := NewCommandBus()
		handled := false
		require.NoError(t, bus.Register(testCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			handled = true
			return nil
		})))

		require.NoError(t, bus.Send(ctx, testCommand{}))
		assert.True(t, handled)
	})

	t.Run("validation failures never reach the handler", func(t *testing.T) {
		bus := NewCommandBus()
		handled := false
		require.NoError(t, bus.Register(testCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			handled = true
			return nil
		})))

		err := bus.Send(ctx, testCommand{invalid: true})
		require.Error(t, err)
		assert.False(t, handled)
	})

	t.Run("unregistered command types are rejected", func(t *testing.T) {
		bus := NewCommandBus()
		assert.Error(t, bus.Send(ctx, otherCommand{}))
	})

	t.Run("duplicate registration is rejected", func(t *testing.T) {
		bus := NewCommandBus()
		handler := CommandHandlerFunc(func(ctx context.Context, cmd Command) error { return nil })
		require.NoError(t, bus.Register(testCommand{}, handler))
		assert.Error(t, bus.Register(testCommand{}, handler))
	})

	t.Run("middleware wraps outermost first", func(t *testing.T) {
		var order []string
		middleware := func(name string) Middleware {
			return func(next CommandHandler) CommandHandler {
				return CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
					order = append(order, name)
					return next.Handle(ctx, cmd)
				})
			}
		}

		bus := NewCommandBus(middleware("outer"), middleware("inner"))
		require.NoError(t, bus.Register(testCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) error {
			order = append(order, "handler")
			return nil
		})))

		require.NoError(t, bus.Send(ctx, testCommand{}))
		assert.Equal(t, []string{"outer", "inner", "handler"}, order)
	})
}
