package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/httpcopy/internal/clock"
	"github.com/SmitUplenchwar2687/httpcopy/internal/config"
	"github.com/SmitUplenchwar2687/httpcopy/internal/engine"
	"github.com/SmitUplenchwar2687/httpcopy/internal/limiter"
	"github.com/SmitUplenchwar2687/httpcopy/internal/metrics"
	"github.com/SmitUplenchwar2687/httpcopy/internal/recorder"
	"github.com/SmitUplenchwar2687/httpcopy/internal/replay"
	"github.com/SmitUplenchwar2687/httpcopy/internal/server"
	"github.com/SmitUplenchwar2687/httpcopy/internal/stats"
	"github.com/SmitUplenchwar2687/httpcopy/internal/storage"
	"github.com/SmitUplenchwar2687/httpcopy/internal/watch"
)

// service holds every component wired from one Config.
type service struct {
	cfg     config.Config
	clock   clock.Clock
	journal *os.File
	rec     *recorder.Recorder
	store   storage.Storage
	stats   *stats.Stats
	metrics *metrics.Metrics
	hub     *server.Hub
	status  *server.Server
	watcher *watch.Watcher
	engine  *engine.Engine
}

func newStorage(cfg config.Config) (storage.Storage, error) {
	switch cfg.Stats.Backend {
	case config.BackendRedis:
		r := cfg.Stats.Redis
		return storage.NewRedisStorage(&storage.RedisConfig{
			Host:        r.Host,
			Port:        r.Port,
			Password:    r.Password,
			DB:          r.DB,
			DialTimeout: r.DialTimeout,
			Prefix:      r.Prefix,
		})
	default:
		return storage.NewMemoryStorage(), nil
	}
}

// newService wires the components for cfg. The caller must call close.
func newService(cfg config.Config, clk clock.Clock) (_ *service, err error) {
	s := &service{cfg: cfg, clock: clk}
	defer func() {
		if err != nil {
			s.close()
		}
	}()

	if err := cfg.Layout().EnsureLayout(); err != nil {
		return nil, fmt.Errorf("creating directories: %w", err)
	}

	var journal io.Writer
	if cfg.Journal != "" {
		f, err := recorder.OpenJournal(cfg.Journal)
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		s.journal = f
		journal = f
	}
	s.rec = recorder.New(journal, recorder.DefaultCapacity)

	s.store, err = newStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("stats backend: %w", err)
	}
	s.stats = stats.New(s.store)
	s.metrics = metrics.New(func() int {
		if s.engine == nil {
			return 0
		}
		return s.engine.InFlight()
	})
	s.hub = server.NewHub()

	observers := []recorder.Observer{s.rec, s.stats, s.metrics, s.hub}

	var wake <-chan struct{}
	if cfg.Watch {
		s.watcher = watch.New(cfg.Layout().Root, cfg.Timeout, clk)
		wake = s.watcher.Wake()
	}

	var pacer limiter.Pacer = limiter.Unlimited{}
	if cfg.Replay.Rate > 0 {
		pacer = limiter.NewTokenBucket(cfg.Replay.Rate, cfg.Replay.Burst, clk)
	}
	dispatch := replay.DispatcherOptions{
		MaxConcurrent: int64(cfg.Replay.MaxConcurrent),
		Pacer:         pacer,
	}

	s.engine, err = engine.New(cfg, engine.Options{
		Clock:     clk,
		Dispatch:  dispatch,
		Observers: observers,
		Wake:      wake,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Status.Addr != "" {
		shadow, _ := cfg.ForwardAddr()
		s.status = server.New(cfg.Status.Addr, server.Options{
			Clock:   clk,
			Listen:  cfg.Listen,
			Shadow:  shadow,
			Stats:   s.stats,
			Events:  s.rec,
			Metrics: s.metrics.Handler(),
			Hub:     s.hub,
		})
	}
	return s, nil
}

// run starts the optional watcher and status server, then runs the engine
// until ctx is done. In run-once mode it waits for dispatched replays.
func (s *service) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.watcher != nil {
		go func() {
			if err := s.watcher.Run(ctx); err != nil {
				log.WithError(err).Error("watcher stopped")
			}
		}()
	}

	if s.status != nil {
		go func() {
			if err := s.status.Start(); err != nil {
				log.WithError(err).Error("status server stopped")
			}
		}()
		defer func() {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			s.status.Shutdown(shutdownCtx)
		}()
	}

	err := s.engine.Run(ctx)
	if s.cfg.Interval == 0 {
		s.engine.Wait()
	}
	return err
}

func (s *service) close() {
	var errs []error
	if s.stats != nil {
		errs = append(errs, s.stats.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.WithError(err).Warn("closing service")
	}
}
