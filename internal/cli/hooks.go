package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// logHooks reports solver, pool and cache events at debug level. Pool
// evictions are warnings: they mean the budget is too small for the
// workload.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnSolveStart(_ context.Context, strategy string, vertices, colors int) {
	h.logger.Debug("solve start", "strategy", strategy, "vertices", vertices, "colors", colors)
}

func (h *logHooks) OnSolveComplete(_ context.Context, strategy string, score float64, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("solve failed", "strategy", strategy, "duration", d, "error", err)
		return
	}
	h.logger.Debug("solve complete", "strategy", strategy, "score", score, "duration", d)
}

func (h *logHooks) OnEvict(entries int, bytes int64) {
	h.logger.Warn("subset pool evicted; consider raising pool.budget_bytes", "entries", entries, "bytes", bytes)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
