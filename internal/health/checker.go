// Package health watches the upstream fullnode. The read-only API keeps
// serving while the node flaps, but /healthz should say so.
package health

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Probe checks the upstream once. A nil error means the node answered.
type Probe func(ctx context.Context) error

// Config holds node probe configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	FailThreshold int
}

// Status is a point-in-time snapshot of the node's health.
type Status struct {
	Healthy             bool      `json:"healthy"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastChecked         time.Time `json:"last_checked"`
	LastError           string    `json:"last_error,omitempty"`
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(success bool)

// Checker runs periodic fullnode probes and tracks degradation.
// The node starts out presumed healthy; it takes FailThreshold
// consecutive failures to flip, and a single success to recover.
type Checker struct {
	probe     Probe
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger

	mu        sync.Mutex
	failCount int
	degraded  bool
	lastCheck time.Time
	lastErr   error
}

// New creates a Checker.
func New(probe Probe, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Checker{
		probe:  probe,
		cfg:    cfg,
		logger: logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (c *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	c.onMetrics = fn
}

// Start runs the probe loop until quit is signalled.
func (c *Checker) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(c.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CheckNow(context.Background())
		case <-quit:
			return
		}
	}
}

// CheckNow runs one probe and updates the tracked state.
func (c *Checker) CheckNow(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	err := c.probe(ctx)
	success := err == nil

	if c.onMetrics != nil {
		c.onMetrics(success)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastCheck = time.Now().UTC()
	c.lastErr = err

	if success {
		if c.degraded {
			c.logger.Info("node recovered", zap.Int("failures", c.failCount))
		}
		c.failCount = 0
		c.degraded = false
		return
	}

	c.failCount++
	if c.failCount == c.cfg.FailThreshold {
		c.degraded = true
		c.logger.Warn("node degraded",
			zap.Int("fail_count", c.failCount),
			zap.Error(err),
		)
	}
}

// Healthy reports whether the node is currently considered reachable.
func (c *Checker) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.degraded
}

// Status returns the current health snapshot.
func (c *Checker) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Healthy:             !c.degraded,
		ConsecutiveFailures: c.failCount,
		LastChecked:         c.lastCheck,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	return s
}
