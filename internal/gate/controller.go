package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"parking-gate-backend/internal/obs"
)

var (
	// ErrBusy is returned when a command arrives while the gate is moving.
	// The command is dropped, not queued.
	ErrBusy = errors.New("gate is still running")
	// ErrTimeout is returned when the hardware never acknowledges a command
	// within the configured deadline.
	ErrTimeout = errors.New("gate did not acknowledge in time")
)

// Controller is the state machine layered on the link. Callers await open or
// close; inbound hardware events resolve the pending completions. Completions
// form a FIFO queue per direction, so every concurrent caller for the same
// direction is resolved in arrival order when the terminal event fires.
type Controller struct {
	mu      sync.Mutex
	sender  Sender
	state   State
	waiters map[Direction][]chan State
	timeout time.Duration
	metrics *obs.Metrics
}

// NewController creates a gate controller. The gate is assumed closed and at
// rest until hardware events say otherwise. metrics may be nil.
func NewController(sender Sender, timeout time.Duration, metrics *obs.Metrics) *Controller {
	return &Controller{
		sender:  sender,
		state:   State{Direction: DirectionClose},
		waiters: make(map[Direction][]chan State),
		timeout: timeout,
		metrics: metrics,
	}
}

// State returns the current gate state snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open requests the gate to open and blocks until the hardware acknowledges,
// the fast-path fires, the deadline expires, or ctx is cancelled.
func (c *Controller) Open(ctx context.Context) (State, error) {
	return c.command(ctx, DirectionOpen)
}

// Close requests the gate to close; semantics mirror Open.
func (c *Controller) Close(ctx context.Context) (State, error) {
	return c.command(ctx, DirectionClose)
}

func (c *Controller) command(ctx context.Context, dir Direction) (State, error) {
	c.mu.Lock()
	if c.state.Running {
		st := c.state
		c.mu.Unlock()
		c.incCommand(dir, "busy")
		return st, ErrBusy
	}
	if c.state.Direction == dir {
		// Already in the requested position; idempotent no-op.
		st := c.state
		c.mu.Unlock()
		c.incCommand(dir, "ok")
		return st, nil
	}
	if err := c.sender.Send(dir); err != nil {
		st := c.state
		c.mu.Unlock()
		if errors.Is(err, ErrDeviceUnavailable) {
			c.incCommand(dir, "unavailable")
		} else {
			c.incCommand(dir, "error")
		}
		return st, err
	}
	ch := make(chan State, 1)
	c.waiters[dir] = append(c.waiters[dir], ch)
	c.mu.Unlock()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case st := <-ch:
		c.incCommand(dir, "ok")
		return st, nil
	case <-ctx.Done():
		if st, ok := c.abandon(dir, ch); ok {
			c.incCommand(dir, "ok")
			return st, nil
		}
		c.incCommand(dir, "timeout")
		return c.State(), fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	case <-timer.C:
		if st, ok := c.abandon(dir, ch); ok {
			c.incCommand(dir, "ok")
			return st, nil
		}
		c.incCommand(dir, "timeout")
		return c.State(), ErrTimeout
	}
}

// abandon removes a waiter that gave up. If the terminal event resolved it
// concurrently, the buffered state wins and the caller still succeeds.
func (c *Controller) abandon(dir Direction, ch chan State) (State, bool) {
	c.mu.Lock()
	ws := c.waiters[dir]
	for i, w := range ws {
		if w == ch {
			c.waiters[dir] = append(ws[:i:i], ws[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	select {
	case st := <-ch:
		return st, true
	default:
		return State{}, false
	}
}

// HandleFrame applies one inbound hardware event. Unrecognized verbs are
// ignored. This is the only writer of the gate state.
func (c *Controller) HandleFrame(f Frame) {
	switch f.Verb {
	case "running":
		c.mu.Lock()
		c.state.Running = true
		if d := Direction(f.Arg); d == DirectionOpen || d == DirectionClose {
			c.state.Direction = d
		}
		c.mu.Unlock()
	case "opened":
		c.settle(DirectionOpen)
	case "closed":
		c.settle(DirectionClose)
	}
}

// settle records the terminal state for a direction and resolves every pending
// waiter for it, in arrival order.
func (c *Controller) settle(dir Direction) {
	c.mu.Lock()
	c.state.Direction = dir
	c.state.Running = false
	st := c.state
	ws := c.waiters[dir]
	c.waiters[dir] = nil
	c.mu.Unlock()

	for _, w := range ws {
		w <- st
	}
}

func (c *Controller) incCommand(dir Direction, result string) {
	if c.metrics != nil {
		c.metrics.GateCommandTotal.WithLabelValues(string(dir), result).Inc()
	}
}
