package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	flag "github.com/spf13/pflag"

	"github.com/abelbrown/pokedex/internal/config"
	"github.com/abelbrown/pokedex/internal/controller"
	"github.com/abelbrown/pokedex/internal/fetch"
	"github.com/abelbrown/pokedex/internal/logging"
	"github.com/abelbrown/pokedex/internal/otel"
	"github.com/abelbrown/pokedex/internal/store"
)

// envOrDefault returns the environment variable value or a fallback.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

const dataDirUsage = "Data directory for config, cache and logs"

// defaultDataDir is POKEDEX_DATA_DIR or ~/.pokedex.
func defaultDataDir() string {
	return envOrDefault("POKEDEX_DATA_DIR", config.DefaultDataDir())
}

// dataDirFlag registers --data-dir on fs.
func dataDirFlag(fs *flag.FlagSet) *string {
	return fs.String("data-dir", defaultDataDir(), dataDirUsage)
}

// loadConfig reads <dir>/config.json over the defaults and pins DataDir.
// An explicit --data-dir beats data_dir from the file; otherwise the
// file's data_dir (or POKEDEX_DATA_DIR) may move cache and logs elsewhere.
func loadConfig(fs *flag.FlagSet, dir string) (*config.Config, error) {
	cfg, err := config.Load(config.Path(dir))
	if err != nil {
		return nil, err
	}
	if fs.Changed("data-dir") || cfg.DataDir == "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

// session owns the long-lived collaborators one command run needs.
type session struct {
	cfg     *config.Config
	log     *log.Logger
	logFile *logging.File

	events     *otel.Logger
	eventsFile *os.File
	ring       *otel.RingBuffer

	client  *fetch.Client
	cache   *store.Store // nil when the cache is disabled or failed to open
	details controller.DetailFetcher
}

// openSession wires logging, events, the HTTP client and the cache.
// The diagnostic log goes to a dated file; if that fails it goes to
// errOut at warn level so the terminal stays readable.
func openSession(cfg *config.Config, errOut io.Writer) (*session, error) {
	dir := cfg.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &session{cfg: cfg, ring: otel.NewRingBuffer(otel.DefaultRingSize)}

	if lf, err := logging.OpenFile(dir, cfg.Log.Level); err == nil {
		s.logFile = lf
		s.log = lf.Logger
	} else {
		s.log = logging.New(errOut, "warn")
		s.log.Warn("log file unavailable", "err", err)
	}

	if f, err := os.OpenFile(cfg.EventsPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
		s.eventsFile = f
		s.events = otel.NewLogger(f)
	} else {
		s.log.Warn("event log unavailable", "path", cfg.EventsPath(), "err", err)
		s.events = otel.NewNullLogger()
	}
	s.events.SetRingBuffer(s.ring)
	s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Msg: logging.Version})

	s.client = fetch.NewClient(fetch.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout.D(),
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		Logger:    s.log.WithPrefix("fetch"),
	})
	s.details = s.client

	if cfg.Cache.Enabled {
		st, err := store.Open(cfg.CachePath())
		if err != nil {
			// A broken cache never stops browsing.
			s.log.Warn("detail cache disabled", "path", cfg.CachePath(), "err", err)
			s.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindCacheError, Comp: "main", Err: err.Error()})
		} else {
			s.cache = st
			s.details = fetch.NewCachedClient(s.client, st, s.log.WithPrefix("cache"), s.events)
		}
	}

	s.log.Info("session opened", "base_url", s.client.BaseURL(), "cache", s.cache != nil, "session", s.events.SessionID())
	return s, nil
}

// newController builds a list controller from the config. pageSize
// overrides the configured page size when positive.
func (s *session) newController(pageSize int) *controller.Controller {
	cfg := controller.Config{
		PageSize:          s.cfg.List.PageSize,
		MaxCriteria:       s.cfg.List.MaxSortCriteria,
		DetailConcurrency: s.cfg.List.DetailConcurrency,
		Logger:            s.log,
		Events:            s.events,
	}
	if pageSize > 0 {
		cfg.PageSize = pageSize
	}
	return controller.New(s.client, s.details, cfg)
}

// Close flushes events and closes files in reverse order of opening.
func (s *session) Close() error {
	s.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "main"})
	s.events.Close()
	if d := s.events.Dropped(); d > 0 {
		s.log.Warn("events dropped", "count", d, "session", s.events.SessionID())
	}

	var errs []error
	if s.cache != nil {
		errs = append(errs, s.cache.Close())
	}
	if s.eventsFile != nil {
		errs = append(errs, s.eventsFile.Close())
	}
	if s.logFile != nil {
		errs = append(errs, s.logFile.Close())
	}
	return errors.Join(errs...)
}

// openCache opens the cache file directly, for maintenance commands.
func openCache(cfg *config.Config) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.CachePath()), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return store.Open(cfg.CachePath())
}
