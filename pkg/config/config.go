// Package config loads fragtree settings from a TOML file.
//
// The file is optional. Missing keys keep their defaults and unknown keys
// are rejected so typos do not silently change a solve:
//
//	[solver]
//	strategy = "exact"
//	max_colors = 16
//	trees = 5
//	delta = inf
//	lowerbound = -inf
//	rde_factor = 0.5
//
//	[pool]
//	budget_bytes = 1073741824
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "168h"
//
//	[batch]
//	workers = 8
//	cleanup = true
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/fragtree/pkg/cache"
	fterrors "github.com/matzehuels/fragtree/pkg/errors"
	"github.com/matzehuels/fragtree/pkg/solver"
	"github.com/matzehuels/fragtree/pkg/subset"
)

const appName = "fragtree"

// Config is the complete file configuration.
type Config struct {
	Solver SolverConfig `toml:"solver"`
	Pool   PoolConfig   `toml:"pool"`
	Cache  CacheConfig  `toml:"cache"`
	Batch  BatchConfig  `toml:"batch"`
}

// SolverConfig selects and tunes the tree builder.
type SolverConfig struct {
	Strategy   string  `toml:"strategy"`
	MaxColors  int     `toml:"max_colors"`
	Trees      int     `toml:"trees"`
	Delta      float64 `toml:"delta"`
	Lowerbound float64 `toml:"lowerbound"`
	RDEFactor  float64 `toml:"rde_factor"`
}

// PoolConfig sizes the shared subset pool.
type PoolConfig struct {
	BudgetBytes int64 `toml:"budget_bytes"`
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	Prefix        string   `toml:"prefix"`
	TTL           Duration `toml:"ttl"`
}

// BatchConfig controls parallel solving.
type BatchConfig struct {
	Workers int  `toml:"workers"`
	Cleanup bool `toml:"cleanup"`
}

// Duration is a time.Duration written as a Go duration string ("24h").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Solver: SolverConfig{
			Strategy:   string(solver.StrategyExact),
			MaxColors:  solver.DefaultMaxColors,
			Trees:      solver.DefaultTrees,
			Delta:      math.Inf(1),
			Lowerbound: math.Inf(-1),
			RDEFactor:  solver.DefaultRDEFactor,
		},
		Pool:  PoolConfig{BudgetBytes: subset.DefaultBudget},
		Cache: CacheConfig{Backend: cache.BackendFile, Prefix: appName + ":", TTL: Duration{7 * 24 * time.Hour}},
		Batch: BatchConfig{Workers: runtime.NumCPU(), Cleanup: true},
	}
}

// Path returns the default config file location:
// $XDG_CONFIG_HOME/fragtree/config.toml or ~/.config/fragtree/config.toml.
func Path() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// Load reads the file at path over the defaults. An empty path loads the
// default location, where a missing file is not an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fterrors.Wrap(fterrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes TOML from r over the defaults and validates the result.
func Read(r io.Reader) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fterrors.Wrap(fterrors.ErrCodeInvalidConfig, err, "decode")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fterrors.New(fterrors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if _, err := solver.ParseStrategy(c.Solver.Strategy); err != nil {
		return err
	}
	if c.Solver.MaxColors < 1 || c.Solver.MaxColors > solver.MaxColorLimit {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "solver.max_colors must be between 1 and %d", solver.MaxColorLimit)
	}
	if c.Solver.Trees < 1 {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "solver.trees must be positive")
	}
	if c.Solver.Delta <= 0 || math.IsNaN(c.Solver.Delta) {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "solver.delta must be positive")
	}
	if c.Solver.RDEFactor < 0 {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "solver.rde_factor must not be negative")
	}
	if c.Pool.BudgetBytes <= 0 {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "pool.budget_bytes must be positive")
	}
	if !slices.Contains([]string{cache.BackendFile, cache.BackendRedis, cache.BackendNone}, c.Cache.Backend) {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "cache.backend must be file, redis or none")
	}
	if c.Cache.Backend == cache.BackendRedis && c.Cache.RedisAddr == "" {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
	}
	if c.Batch.Workers < 1 {
		return fterrors.New(fterrors.ErrCodeInvalidConfig, "batch.workers must be positive")
	}
	return nil
}

// SolverOptions converts the solver section into builder options using pool
// for the exact solver.
func (c Config) SolverOptions(pool *subset.Pool) solver.Options {
	return solver.Options{
		Exact: solver.ExactOptions{
			MaxColors:     c.Solver.MaxColors,
			Trees:         c.Solver.Trees,
			Delta:         c.Solver.Delta,
			MaxExpansions: solver.DefaultMaxExpansions,
			Pool:          pool,
		},
		RDEFactor: c.Solver.RDEFactor,
	}
}

// CacheOptions converts the cache section. defaultDir is used when no
// directory is configured.
func (c Config) CacheOptions(defaultDir string) cache.Options {
	dir := c.Cache.Dir
	if dir == "" {
		dir = defaultDir
	}
	return cache.Options{
		Backend: c.Cache.Backend,
		Dir:     dir,
		Redis: cache.RedisOptions{
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			Prefix:   c.Cache.Prefix,
		},
	}
}
