package transact

import (
	"context"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

// HandlerFunc executes a named action against its payload. Returning nil
// marks the step as completed; returning an error stops forward execution and
// triggers compensation of every previously completed step. The same contract
// applies to compensating actions, except that their errors are discarded.
type HandlerFunc func(ctx context.Context, action string, data map[string]any) error

// HandlerRegistry is a registry of action handlers shared by every
// transaction a Manager drives.
//
// Handlers are identified by action name. A step whose action has no
// registered handler executes as a no-op: a registry can be left entirely
// empty to sequence a transaction as a dry run.
type HandlerRegistry struct {
	handlers *xsync.MapOf[string, HandlerFunc]
}

// NewHandlerRegistry creates a new HandlerRegistry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: xsync.NewMapOf[string, HandlerFunc](),
	}
}

// Register adds a handler for the given action name.
func (r *HandlerRegistry) Register(action string, fn HandlerFunc) error {
	if fn == nil {
		return fmt.Errorf("handler for action %q is nil", action)
	}
	if _, ok := r.handlers.Load(action); ok {
		return fmt.Errorf("handler for action %q already registered", action)
	}
	r.handlers.Store(action, fn)
	return nil
}

// Get retrieves the handler for an action name, if one is registered.
func (r *HandlerRegistry) Get(action string) (HandlerFunc, bool) {
	return r.handlers.Load(action)
}

// Len returns the number of registered handlers.
func (r *HandlerRegistry) Len() int {
	return r.handlers.Size()
}
