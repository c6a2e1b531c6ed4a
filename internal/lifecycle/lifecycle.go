// Package lifecycle coordinates startup and shutdown of the coordinator's
// long-running components. It renders the teacher's repeated "running
// bool + stopCh" shutdown pattern (SensorGenerator, DisseminationSystem,
// UDPServer) as a single context.Context plus errgroup.Group, so main can
// cancel every component with one call and wait for all of them to exit
// cleanly instead of hand-sequencing Stop() calls.
package lifecycle

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Component is anything with a blocking Stop and a non-blocking Start;
// acceptor.Acceptor and debugserver.Server satisfy it directly, while
// dispatcher.Dispatcher and spawner.Spawner are adapted via FromFuncs.
type Component interface {
	Start() error
	Stop() error
}

// runnableComponent adapts components whose Stop cannot fail (dispatcher,
// spawner) to Component.
type runnableComponent struct {
	start func() error
	stop  func() error
}

func (r runnableComponent) Start() error { return r.start() }
func (r runnableComponent) Stop() error  { return r.stop() }

// FromFuncs builds a Component out of plain start/stop funcs, for types
// like Dispatcher/Spawner whose Stop returns nothing.
func FromFuncs(start func() error, stop func() error) Component {
	return runnableComponent{start: start, stop: stop}
}

// Controller starts a fixed set of components and stops them all when
// Shutdown is called, or when a later component's Start fails during Run.
// Cancelling the context alone does not stop any component; it only
// closes the Done channel.
type Controller struct {
	ctx        context.Context
	cancel     context.CancelFunc
	components []Component
}

// New creates a Controller bound to parent; cancelling parent (or calling
// Shutdown) closes Done, and Shutdown stops every registered component.
func New(parent context.Context) *Controller {
	ctx, cancel := context.WithCancel(parent)
	return &Controller{ctx: ctx, cancel: cancel}
}

// Add registers a component to be started by Run, in registration order,
// and stopped by Shutdown.
func (g *Controller) Add(c Component) {
	g.components = append(g.components, c)
}

// Run starts every registered component. If any Start fails, the
// components already started are stopped before the error is returned.
func (g *Controller) Run() error {
	for i, c := range g.components {
		if err := c.Start(); err != nil {
			g.stopFrom(i - 1)
			return err
		}
	}
	return nil
}

// Shutdown cancels the group's context and calls Stop on every component
// concurrently via errgroup, so no stop order is guaranteed. It waits for
// every Stop to return and reports the first non-nil error.
func (g *Controller) Shutdown() error {
	g.cancel()
	return g.stopFrom(len(g.components) - 1)
}

// Done returns the group's context Done channel, for main to select on
// alongside an OS signal channel.
func (g *Controller) Done() <-chan struct{} {
	return g.ctx.Done()
}

func (g *Controller) stopFrom(last int) error {
	var eg errgroup.Group
	for i := last; i >= 0; i-- {
		c := g.components[i]
		eg.Go(c.Stop)
	}
	return eg.Wait()
}
