package collision

import (
	"log/slog"
	"time"
)

// CollectorOption configures a collection pass.
type CollectorOption func(*collector)

// WithLeafSize sets the maximum triangles per bounds tree leaf. Values < 1 use the geometry default.
func WithLeafSize(n int) CollectorOption {
	return func(c *collector) {
		c.leafSize = n
	}
}

// WithWorkers sets how many trees are built in parallel. Values < 1 are ignored.
func WithWorkers(n int) CollectorOption {
	return func(c *collector) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithScanDelay makes Await wait an extra settle period after the scene reports completion.
func WithScanDelay(d time.Duration) CollectorOption {
	return func(c *collector) {
		c.scanDelay = d
	}
}

// WithCollectorLogger sets the logger for collection summaries.
func WithCollectorLogger(logger *slog.Logger) CollectorOption {
	return func(c *collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}
