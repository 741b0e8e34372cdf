package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/SmitUplenchwar2687/httpcopy/internal/config"
)

// configFlags binds the service configuration to command-line flags.
// Only flags the user actually set override the config file.
type configFlags struct {
	path     string
	values   config.Config
	timeout  float64
	interval float64
}

func (f *configFlags) register(fs *pflag.FlagSet) {
	d := config.Default()
	f.values = d

	fs.StringVar(&f.path, "config", "", "JSON config file (flags override it)")
	fs.StringVarP(&f.values.Listen, "listen", "l", "", "monitored server address, ip[:port]")
	fs.StringVarP(&f.values.Forward, "forward", "f", "", "shadow server address, host[:port]")
	fs.StringVarP(&f.values.URLPrefix, "url-prefix", "u", "", "only replay requests whose target starts with this prefix")
	fs.Float64VarP(&f.timeout, "timeout", "t", d.Timeout.Seconds(), "seconds a flow file must be idle before it is processed")
	fs.Float64VarP(&f.interval, "interval", "i", d.Interval.Seconds(), "seconds between scans, 0 runs once")
	fs.StringVarP(&f.values.DataDir, "data-dir", "d", d.DataDir, "directory tcpflow writes capture files into")

	fs.DurationVar(&f.values.Replay.ConnectTimeout, "connect-timeout", d.Replay.ConnectTimeout, "shadow server connect timeout")
	fs.DurationVar(&f.values.Replay.ReadTimeout, "read-timeout", d.Replay.ReadTimeout, "shadow server per-read timeout")
	fs.IntVar(&f.values.Replay.MaxConcurrent, "max-replays", d.Replay.MaxConcurrent, "max concurrent replays, 0 = unbounded")
	fs.Float64Var(&f.values.Replay.Rate, "replay-rate", d.Replay.Rate, "max replay starts per second, 0 = unpaced")
	fs.IntVar(&f.values.Replay.Burst, "replay-burst", d.Replay.Burst, "replay start burst size")
	fs.BoolVar(&f.values.Watch, "watch", d.Watch, "scan as soon as written files settle")
	fs.StringVar(&f.values.Status.Addr, "status-addr", "", "status server address, empty disables it")
	fs.StringVar(&f.values.Journal, "journal", "", "append outcome events to this NDJSON file")

	fs.StringVar(&f.values.Stats.Backend, "stats-backend", d.Stats.Backend, "counter backend (memory, redis)")
	fs.StringVar(&f.values.Stats.Redis.Host, "redis-host", d.Stats.Redis.Host, "redis host")
	fs.IntVar(&f.values.Stats.Redis.Port, "redis-port", d.Stats.Redis.Port, "redis port")
	fs.StringVar(&f.values.Stats.Redis.Password, "redis-password", "", "redis password")
	fs.IntVar(&f.values.Stats.Redis.DB, "redis-db", d.Stats.Redis.DB, "redis database index")
	fs.StringVar(&f.values.Stats.Redis.Prefix, "redis-prefix", d.Stats.Redis.Prefix, "redis key prefix")

	fs.StringVar(&f.values.Log.Level, "log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.StringVar(&f.values.Log.Format, "log-format", d.Log.Format, "log format (text, json)")
}

// resolve builds the effective config: defaults, then the config file,
// then every flag set on the command line.
func (f *configFlags) resolve(fs *pflag.FlagSet) (config.Config, error) {
	cfg := config.Default()
	if f.path != "" {
		loaded, err := config.LoadFile(f.path, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	var applyErr error
	fs.Visit(func(fl *pflag.Flag) {
		if err := f.apply(&cfg, fl.Name); err != nil && applyErr == nil {
			applyErr = err
		}
	})
	if applyErr != nil {
		return cfg, applyErr
	}
	return cfg, cfg.Validate()
}

func seconds(name string, v float64) (time.Duration, error) {
	if v < 0 {
		return 0, fmt.Errorf("--%s must not be negative, got %g", name, v)
	}
	return time.Duration(v * float64(time.Second)), nil
}

func (f *configFlags) apply(cfg *config.Config, name string) error {
	v := &f.values
	var err error
	switch name {
	case "listen":
		cfg.Listen = v.Listen
	case "forward":
		cfg.Forward = v.Forward
	case "url-prefix":
		cfg.URLPrefix = v.URLPrefix
	case "timeout":
		cfg.Timeout, err = seconds(name, f.timeout)
	case "interval":
		cfg.Interval, err = seconds(name, f.interval)
	case "data-dir":
		cfg.DataDir = v.DataDir
	case "connect-timeout":
		cfg.Replay.ConnectTimeout = v.Replay.ConnectTimeout
	case "read-timeout":
		cfg.Replay.ReadTimeout = v.Replay.ReadTimeout
	case "max-replays":
		cfg.Replay.MaxConcurrent = v.Replay.MaxConcurrent
	case "replay-rate":
		cfg.Replay.Rate = v.Replay.Rate
	case "replay-burst":
		cfg.Replay.Burst = v.Replay.Burst
	case "watch":
		cfg.Watch = v.Watch
	case "status-addr":
		cfg.Status.Addr = v.Status.Addr
	case "journal":
		cfg.Journal = v.Journal
	case "stats-backend":
		cfg.Stats.Backend = v.Stats.Backend
	case "redis-host":
		cfg.Stats.Redis.Host = v.Stats.Redis.Host
	case "redis-port":
		cfg.Stats.Redis.Port = v.Stats.Redis.Port
	case "redis-password":
		cfg.Stats.Redis.Password = v.Stats.Redis.Password
	case "redis-db":
		cfg.Stats.Redis.DB = v.Stats.Redis.DB
	case "redis-prefix":
		cfg.Stats.Redis.Prefix = v.Stats.Redis.Prefix
	case "log-level":
		cfg.Log.Level = v.Log.Level
	case "log-format":
		cfg.Log.Format = v.Log.Format
	}
	return err
}

// logEffectiveFlags logs every flag with its current value, sorted by name.
func logEffectiveFlags(fs *pflag.FlagSet) {
	var all []*pflag.Flag
	fs.VisitAll(func(f *pflag.Flag) { all = append(all, f) })
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	parts := make([]string, 0, len(all))
	for _, f := range all {
		if f.Name == "redis-password" && f.Value.String() != "" {
			parts = append(parts, "--redis-password=***")
			continue
		}
		parts = append(parts, fmt.Sprintf("--%s=%s", f.Name, f.Value.String()))
	}
	log.Debugf("effective flags: %s", strings.Join(parts, " "))
}
