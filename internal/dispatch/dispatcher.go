package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// ErrWorkerCrash is surfaced when a job panics inside a worker. The panic is
// contained; the pool keeps serving.
var ErrWorkerCrash = errors.New("request worker crashed")

// Job is one unit of admission work executed on the pool.
type Job func(ctx context.Context) (any, error)

// Outcome is the single result message relayed back for a dispatched job.
type Outcome struct {
	Value any
	Err   error
}

type task struct {
	id  string
	ctx context.Context
	run Job
	out chan Outcome
}

// Dispatcher isolates each admission request on a bounded worker pool and
// relays exactly one outcome per submitted job.
type Dispatcher struct {
	size int
	jobs chan task
}

// New creates a dispatcher with the given number of workers.
func New(size int) *Dispatcher {
	return &Dispatcher{
		size: size,
		jobs: make(chan task, size),
	}
}

// Start launches the worker goroutines.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.size; i++ {
		go d.worker(ctx, i)
	}
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	log.Printf("dispatch worker %d started", id)
	for {
		select {
		case t := <-d.jobs:
			d.execute(t)
		case <-ctx.Done():
			log.Printf("dispatch worker %d shutting down", id)
			return
		}
	}
}

// execute runs one job and delivers exactly one outcome: either the job's
// result or, if it panicked, a crash error.
func (d *Dispatcher) execute(t task) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("dispatch: job %s crashed: %v", t.id, r)
			t.out <- Outcome{Err: fmt.Errorf("%w: %v", ErrWorkerCrash, r)}
		}
	}()
	v, err := t.run(t.ctx)
	t.out <- Outcome{Value: v, Err: err}
}

// Submit queues a job and blocks until its single outcome arrives or ctx is
// cancelled.
func (d *Dispatcher) Submit(ctx context.Context, job Job) (any, error) {
	t := task{
		id:  uuid.NewString(),
		ctx: ctx,
		run: job,
		out: make(chan Outcome, 1),
	}
	select {
	case d.jobs <- t:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case o := <-t.out:
		return o.Value, o.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
