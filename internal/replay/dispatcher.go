package replay

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/SmitUplenchwar2687/httpcopy/internal/limiter"
)

// Completion is delivered once per submitted artifact.
type Completion struct {
	Result Result
	Err    error
}

// DispatcherOptions configures optional bounding and notification.
// The zero value spawns one unbounded, unpaced task per artifact.
type DispatcherOptions struct {
	// MaxConcurrent bounds simultaneous replays. 0 means unbounded.
	MaxConcurrent int64
	// Pacer, if set, is waited on before each replay starts.
	Pacer limiter.Pacer
	// OnComplete is called from the replay goroutine after each replay.
	OnComplete func(Completion)
	// Done receives each completion after OnComplete. The send blocks, so
	// the channel must be drained or buffered by the owner.
	Done chan<- Completion
}

// Dispatcher runs replays as independent background tasks. Submit never
// blocks the caller; tasks are not cancelled once started.
type Dispatcher struct {
	replayer Replayer
	sem      *semaphore.Weighted
	pacer    limiter.Pacer
	onDone   func(Completion)
	done     chan<- Completion

	wg       sync.WaitGroup
	inFlight atomic.Int64
	queued   atomic.Int64
}

// NewDispatcher creates a dispatcher around r.
func NewDispatcher(r Replayer, opts DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		replayer: r,
		pacer:    opts.Pacer,
		onDone:   opts.OnComplete,
		done:     opts.Done,
	}
	if opts.MaxConcurrent > 0 {
		d.sem = semaphore.NewWeighted(opts.MaxConcurrent)
	}
	return d
}

// Submit starts replaying a in a new goroutine.
func (d *Dispatcher) Submit(a Artifact) {
	d.wg.Add(1)
	d.queued.Add(1)
	go d.run(a)
}

func (d *Dispatcher) run(a Artifact) {
	defer d.wg.Done()
	ctx := context.Background()

	if d.sem != nil {
		// Acquire only fails on a cancelled context.
		_ = d.sem.Acquire(ctx, 1)
		defer d.sem.Release(1)
	}
	if d.pacer != nil {
		_ = d.pacer.Wait(ctx)
	}

	d.queued.Add(-1)
	d.inFlight.Add(1)
	res, err := d.replayer.Forward(ctx, a)
	d.inFlight.Add(-1)

	c := Completion{Result: res, Err: err}
	if d.onDone != nil {
		d.onDone(c)
	}
	if d.done != nil {
		d.done <- c
	}
}

// InFlight returns the number of replays currently talking to the shadow server.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Queued returns the number of submitted replays waiting for a slot.
func (d *Dispatcher) Queued() int {
	return int(d.queued.Load())
}

// Wait blocks until every submitted replay has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
