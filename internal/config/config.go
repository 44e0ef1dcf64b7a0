// Package config loads and saves the pokedex configuration file.
//
// The file is JSON with comments (~/.pokedex/config.json). Missing keys
// keep their defaults; environment variables override the file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/abelbrown/pokedex/internal/filter"
)

// Config is the persistent application configuration.
type Config struct {
	API     APIConfig   `json:"api"`
	List    ListConfig  `json:"list"`
	Cache   CacheConfig `json:"cache"`
	Log     LogConfig   `json:"log"`
	DataDir string      `json:"data_dir,omitempty"` // default ~/.pokedex
}

// APIConfig holds remote catalogue settings.
type APIConfig struct {
	BaseURL   string   `json:"base_url"`
	Timeout   Duration `json:"timeout"`
	RateLimit float64  `json:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int      `json:"burst"`
}

// ListConfig holds controller and list screen settings.
type ListConfig struct {
	PageSize          int      `json:"page_size"`
	Debounce          Duration `json:"debounce"`
	DetailConcurrency int      `json:"detail_concurrency"` // 0 = unbounded
	MaxSortCriteria   int      `json:"max_sort_criteria"`  // 0 = no cap
	DefaultSort       string   `json:"default_sort,omitempty"`
	SearchMode        string   `json:"search_mode,omitempty"` // "name" or "type"
}

// CacheConfig controls the SQLite detail cache.
type CacheConfig struct {
	Enabled bool     `json:"enabled"`
	MaxAge  Duration `json:"max_age,omitempty"` // 0 = keep forever
}

// LogConfig controls the diagnostic log file.
type LogConfig struct {
	Level string `json:"level"`
}

// Duration is a time.Duration written as "300ms" in the file.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or a number of milliseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("duration must be a string or milliseconds: %s", b)
	}
	*d = Duration(time.Duration(ms * float64(time.Millisecond)))
	return nil
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "https://pokeapi.co/api/v2",
			Timeout:   Duration(30 * time.Second),
			RateLimit: 10,
			Burst:     5,
		},
		List: ListConfig{
			PageSize:          25,
			Debounce:          Duration(300 * time.Millisecond),
			DetailConcurrency: 8,
			MaxSortCriteria:   3,
			SearchMode:        "name",
		},
		Cache: CacheConfig{Enabled: true},
		Log:   LogConfig{Level: "info"},
	}
}

// DefaultDataDir returns ~/.pokedex.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pokedex"
	}
	return filepath.Join(home, ".pokedex")
}

// Path returns the config file path inside dataDir.
func Path(dataDir string) string {
	return filepath.Join(dataDir, "config.json")
}

// Dir returns the effective data directory.
func (c *Config) Dir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir()
}

// CachePath returns the SQLite cache location.
func (c *Config) CachePath() string { return filepath.Join(c.Dir(), "cache.db") }

// EventsPath returns the JSONL event log location.
func (c *Config) EventsPath() string { return filepath.Join(c.Dir(), "pokedex.events.jsonl") }

// Load reads path over the defaults. A missing file is not an error.
// Environment overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := cfg.parse(data); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.Validate()
	return cfg, nil
}

func (c *Config) parse(data []byte) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

const fileHeader = `// pokedex configuration. Comments and trailing commas are allowed.
// Environment overrides: POKEDEX_BASE_URL, POKEDEX_PAGE_SIZE, POKEDEX_CACHE, POKEDEX_DATA_DIR.
`

// Save writes the config to path atomically, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	body, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data, err := hujson.Format(append([]byte(fileHeader), body...))
	if err != nil {
		return fmt.Errorf("format config: %w", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return os.Chmod(path, 0644)
}

// ApplyEnv overrides fields from the environment. Unparseable values are
// ignored and caught by Validate's defaults.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("POKEDEX_BASE_URL"); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := lookup("POKEDEX_PAGE_SIZE"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			c.List.PageSize = n
		}
	}
	if v, ok := lookup("POKEDEX_CACHE"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Cache.Enabled = b
		}
	}
	if v, ok := lookup("POKEDEX_DATA_DIR"); ok && v != "" {
		c.DataDir = v
	}
}

// Validate resets out-of-range values to defaults and returns a note for
// each correction.
func (c *Config) Validate() []string {
	d := DefaultConfig()
	var notes []string
	fix := func(field string, bad bool, apply func()) {
		if bad {
			apply()
			notes = append(notes, field+" reset to default")
		}
	}

	fix("api.base_url", strings.TrimSpace(c.API.BaseURL) == "", func() { c.API.BaseURL = d.API.BaseURL })
	fix("api.timeout", c.API.Timeout <= 0, func() { c.API.Timeout = d.API.Timeout })
	fix("api.rate_limit", c.API.RateLimit < 0, func() { c.API.RateLimit = d.API.RateLimit })
	fix("api.burst", c.API.Burst <= 0, func() { c.API.Burst = d.API.Burst })
	fix("list.page_size", c.List.PageSize <= 0, func() { c.List.PageSize = d.List.PageSize })
	fix("list.debounce", c.List.Debounce <= 0, func() { c.List.Debounce = d.List.Debounce })
	fix("list.detail_concurrency", c.List.DetailConcurrency < 0, func() { c.List.DetailConcurrency = d.List.DetailConcurrency })
	fix("list.max_sort_criteria", c.List.MaxSortCriteria < 0, func() { c.List.MaxSortCriteria = d.List.MaxSortCriteria })
	fix("cache.max_age", c.Cache.MaxAge < 0, func() { c.Cache.MaxAge = 0 })

	_, err := filter.ParseMode(c.List.SearchMode)
	fix("list.search_mode", err != nil, func() { c.List.SearchMode = d.List.SearchMode })
	_, err = filter.ParseCriteria(c.List.DefaultSort)
	fix("list.default_sort", err != nil, func() { c.List.DefaultSort = "" })

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	return notes
}

// SortCriteria parses List.DefaultSort. Validate guarantees it parses.
func (c *Config) SortCriteria() filter.Criteria {
	cs, _ := filter.ParseCriteria(c.List.DefaultSort)
	return cs
}

// Mode parses List.SearchMode.
func (c *Config) Mode() filter.Mode {
	m, _ := filter.ParseMode(c.List.SearchMode)
	return m
}
