package lifecycle

import "context"

// Component is a long-running part of the server that the Manager starts and
// stops in dependency order.
type Component interface {
	// Start brings the component up. It must return once the component is
	// ready; background work keeps running until Stop.
	Start(ctx context.Context) error

	// Stop releases resources within the ctx deadline. Errors are logged by
	// the Manager and do not prevent other components from stopping.
	Stop(ctx context.Context) error

	// Name is used in logs and errors. Must be non-empty.
	Name() string
}

// ComponentFunc adapts a pair of functions to Component.
type ComponentFunc struct {
	ComponentName string
	StartFunc     func(ctx context.Context) error
	StopFunc      func(ctx context.Context) error
}

// Start calls StartFunc when set.
func (c *ComponentFunc) Start(ctx context.Context) error {
	if c.StartFunc == nil {
		return nil
	}
	return c.StartFunc(ctx)
}

// Stop calls StopFunc when set.
func (c *ComponentFunc) Stop(ctx context.Context) error {
	if c.StopFunc == nil {
		return nil
	}
	return c.StopFunc(ctx)
}

// Name returns ComponentName.
func (c *ComponentFunc) Name() string {
	return c.ComponentName
}
