// Package engine drives scan cycles: catalog, pairing, classification,
// quarantine and replay dispatch.
package engine

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/clock"
	"github.com/SmitUplenchwar2687/httpcopy/internal/config"
	"github.com/SmitUplenchwar2687/httpcopy/internal/flow"
	"github.com/SmitUplenchwar2687/httpcopy/internal/framing"
	"github.com/SmitUplenchwar2687/httpcopy/internal/recorder"
	"github.com/SmitUplenchwar2687/httpcopy/internal/replay"
	"github.com/SmitUplenchwar2687/httpcopy/internal/triage"
)

// Options carries the collaborators that are not derived from Config.
type Options struct {
	// Clock defaults to the real clock.
	Clock clock.Clock
	// Settlement defaults to IdleSettlement with Config.Timeout.
	Settlement flow.Settlement
	// Replayer defaults to a replay.Forwarder for Config.Forward.
	Replayer replay.Replayer
	// Dispatch bounds and observes replays. OnComplete is chained after
	// the engine's own completion handling.
	Dispatch replay.DispatcherOptions
	// Observers receive every outcome event.
	Observers []recorder.Observer
	// Wake, if set, triggers an extra cycle between intervals.
	Wake <-chan struct{}
}

// Engine runs scan cycles over one data directory.
type Engine struct {
	clock      clock.Clock
	interval   time.Duration
	shadow     string
	catalog    *capture.Catalog
	pairer     *flow.Pairer
	classifier framing.Classifier
	sink       *triage.Sink
	archive    *replay.Archive
	dispatcher *replay.Dispatcher
	observers  []recorder.Observer
	wake       <-chan struct{}
}

// New builds an engine from a validated config.
func New(cfg config.Config, opts Options) (*Engine, error) {
	listen, err := cfg.ListenEndpoint()
	if err != nil {
		return nil, fmt.Errorf("listen address: %w", err)
	}
	shadow, err := cfg.ForwardAddr()
	if err != nil {
		return nil, fmt.Errorf("forward address: %w", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.NewRealClock()
	}
	policy := opts.Settlement
	if policy == nil {
		policy = flow.IdleSettlement{Timeout: cfg.Timeout}
	}
	replayer := opts.Replayer
	if replayer == nil {
		replayer = replay.NewForwarder(replay.ForwarderConfig{
			Addr:           shadow,
			ConnectTimeout: cfg.Replay.ConnectTimeout,
			ReadTimeout:    cfg.Replay.ReadTimeout,
			ReadBuffer:     cfg.Replay.ReadBuffer,
		})
	}

	layout := cfg.Layout()
	e := &Engine{
		clock:      clk,
		interval:   cfg.Interval,
		shadow:     shadow,
		catalog:    capture.NewCatalog(layout.Root, listen),
		pairer:     flow.NewPairer(policy),
		classifier: framing.Classifier{Filter: framing.PrefixFilter{Prefix: cfg.URLPrefix}},
		sink:       triage.NewSink(layout.Root),
		archive:    replay.NewArchive(layout.Forward),
		observers:  opts.Observers,
		wake:       opts.Wake,
	}

	dispatch := opts.Dispatch
	chained := dispatch.OnComplete
	dispatch.OnComplete = func(c replay.Completion) {
		e.completed(c)
		if chained != nil {
			chained(c)
		}
	}
	e.dispatcher = replay.NewDispatcher(replayer, dispatch)
	return e, nil
}

// Run executes cycles until ctx is done. With a zero interval it runs a
// single cycle and returns its error. Replays still in flight are not
// waited for; see Wait.
func (e *Engine) Run(ctx context.Context) error {
	log.WithFields(log.Fields{
		"dir":      e.catalog.Dir(),
		"shadow":   e.shadow,
		"interval": e.interval,
	}).Info("starting")
	defer log.Info("exiting")

	for {
		if ctx.Err() != nil {
			return nil
		}
		rep, err := e.Cycle(ctx)
		if e.interval == 0 {
			return err
		}
		if err != nil {
			log.WithError(err).Error("scan cycle failed")
		} else if rep.Touched() > 0 {
			log.WithFields(rep.Fields()).Debug("scan cycle")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-e.clock.After(e.interval):
		case <-e.wake:
		}
	}
}

// Wait blocks until every dispatched replay has finished.
func (e *Engine) Wait() {
	e.dispatcher.Wait()
}

// InFlight returns the number of replays connected to the shadow server.
func (e *Engine) InFlight() int {
	return e.dispatcher.InFlight()
}

func (e *Engine) emit(ev recorder.Event) {
	for _, o := range e.observers {
		o.Observe(ev)
	}
}
