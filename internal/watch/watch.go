// Package watch turns filesystem events on capture files into scan requests
// timed for when those files should have settled.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/clock"
)

// Slack is added to the settle timeout so the scan lands strictly after it.
const Slack = 100 * time.Millisecond

// Watcher signals Wake when a recently written capture file should have
// settled.
type Watcher struct {
	dir   string
	clock clock.Clock
	sched *Schedule
	wake  chan struct{}
}

// New creates a watcher for dir. settle is the idle timeout used by pairing.
func New(dir string, settle time.Duration, clk clock.Clock) *Watcher {
	return &Watcher{
		dir:   dir,
		clock: clk,
		sched: NewSchedule(settle + Slack),
		wake:  make(chan struct{}, 1),
	}
}

// Wake fires at most once per pending batch of settled files.
func (w *Watcher) Wake() <-chan struct{} {
	return w.wake
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	log.WithField("dir", w.dir).Info("watching for capture writes")

	timer := w.clock.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	var armed time.Time // deadline the timer is set for, zero when idle

	for {
		next, ok := w.sched.Next()
		switch {
		case !ok && !armed.IsZero():
			timer.Stop()
			armed = time.Time{}
		case ok && !next.Equal(armed):
			timer.Reset(next.Sub(w.clock.Now()))
			armed = next
		}

		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		case <-timer.C():
			armed = time.Time{}
			w.fire()
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !capture.IsName(name) {
		return
	}
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.sched.Touch(name, w.clock.Now())
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.sched.Forget(name)
	}
}

func (w *Watcher) fire() {
	if n := w.sched.PopDue(w.clock.Now()); n > 0 {
		log.WithField("files", n).Debug("capture files settled, requesting scan")
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}
