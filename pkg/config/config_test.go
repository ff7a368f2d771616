package config

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	fterrors "github.com/matzehuels/fragtree/pkg/errors"
	"github.com/matzehuels/fragtree/pkg/subset"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Solver.Strategy != "exact" || cfg.Solver.MaxColors != 16 || cfg.Solver.Trees != 5 {
		t.Errorf("solver defaults = %+v", cfg.Solver)
	}
	if !math.IsInf(cfg.Solver.Delta, 1) || !math.IsInf(cfg.Solver.Lowerbound, -1) {
		t.Errorf("delta/lowerbound defaults = %g/%g", cfg.Solver.Delta, cfg.Solver.Lowerbound)
	}
	if cfg.Pool.BudgetBytes != subset.DefaultBudget {
		t.Errorf("pool budget = %d", cfg.Pool.BudgetBytes)
	}
}

func TestReadOverrides(t *testing.T) {
	cfg, err := Read(strings.NewReader(`
[solver]
strategy = "prim-star"
max_colors = 12
delta = 2.5
lowerbound = -inf

[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "36h"

[batch]
workers = 3
cleanup = false
`))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if cfg.Solver.Strategy != "prim-star" || cfg.Solver.MaxColors != 12 || cfg.Solver.Delta != 2.5 {
		t.Errorf("solver = %+v", cfg.Solver)
	}
	if cfg.Solver.Trees != 5 {
		t.Errorf("unset key should keep default, got trees=%d", cfg.Solver.Trees)
	}
	if cfg.Cache.TTL.Duration != 36*time.Hour {
		t.Errorf("ttl = %v", cfg.Cache.TTL)
	}
	if cfg.Batch.Workers != 3 || cfg.Batch.Cleanup {
		t.Errorf("batch = %+v", cfg.Batch)
	}

	opts := cfg.SolverOptions(nil)
	if opts.Exact.MaxColors != 12 || opts.Exact.Delta != 2.5 {
		t.Errorf("SolverOptions() = %+v", opts)
	}
	co := cfg.CacheOptions("/tmp/x")
	if co.Backend != "redis" || co.Redis.Addr != "localhost:6379" || co.Dir != "/tmp/x" || co.Redis.Prefix != "fragtree:" {
		t.Errorf("CacheOptions() = %+v", co)
	}
}

func TestReadRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  fterrors.Code
	}{
		{"syntax", `[solver`, fterrors.ErrCodeInvalidConfig},
		{"unknown key", "[solver]\nmax_colours = 3", fterrors.ErrCodeInvalidConfig},
		{"strategy", "[solver]\nstrategy = \"annealing\"", fterrors.ErrCodeInvalidStrategy},
		{"colors", "[solver]\nmax_colors = 40", fterrors.ErrCodeInvalidConfig},
		{"delta", "[solver]\ndelta = -1.0", fterrors.ErrCodeInvalidConfig},
		{"backend", "[cache]\nbackend = \"s3\"", fterrors.ErrCodeInvalidConfig},
		{"redis addr", "[cache]\nbackend = \"redis\"", fterrors.ErrCodeInvalidConfig},
		{"ttl", "[cache]\nttl = \"soon\"", fterrors.ErrCodeInvalidConfig},
		{"workers", "[batch]\nworkers = 0", fterrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if got := fterrors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// Missing default file falls back to defaults.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Solver.Strategy != "exact" {
		t.Errorf("strategy = %q", cfg.Solver.Strategy)
	}

	path, _ := Path()
	if want := filepath.Join(dir, "fragtree", "config.toml"); path != want {
		t.Errorf("Path() = %q, want %q", path, want)
	}
	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, []byte("[solver]\nstrategy = \"greedy\"\n"), 0644)
	cfg, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solver.Strategy != "greedy" {
		t.Errorf("strategy = %q, want greedy", cfg.Solver.Strategy)
	}

	// An explicit path must exist.
	_, err = Load(filepath.Join(dir, "missing.toml"))
	if !fterrors.Is(err, fterrors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) = %v", err)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Solver.Strategy = "critical-path"
	cfg.Batch.Workers = 2

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error: %v\n%s", err, buf.String())
	}
	if back.Solver.Strategy != "critical-path" || back.Batch.Workers != 2 || back.Cache.TTL != cfg.Cache.TTL {
		t.Errorf("round trip = %+v", back)
	}
	if !math.IsInf(back.Solver.Delta, 1) {
		t.Errorf("delta = %g", back.Solver.Delta)
	}
}
