package observability

import (
	"context"
	"time"
)

// HealthStatus represents the health state of a component or service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

// severity orders statuses so the worst one wins in a Report.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusDown:
		return 2
	case HealthStatusDegraded:
		return 1
	}
	return 0
}

// Health is the state of one component: the config store or a logger.
// Fields that do not apply to the component are left zero.
type Health struct {
	Component   string       `json:"component"`
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	Environment string       `json:"environment,omitempty"`
	// Path is the log file of a logger or the last directory a store loaded.
	Path string `json:"path,omitempty"`
	// Mode is the logger output mode.
	Mode         string `json:"mode,omitempty"`
	Keys         int    `json:"keys,omitempty"`
	Buffered     int    `json:"buffered,omitempty"`
	LastFlushErr string `json:"last_flush_error,omitempty"`
}

// HealthChecker is implemented by config.Store and logger.Logger.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// Report aggregates component health for one service instance.
type Report struct {
	Service    string       `json:"service"`
	Version    string       `json:"version,omitempty"`
	Instance   string       `json:"instance,omitempty"`
	Status     HealthStatus `json:"status"`
	CheckedAt  time.Time    `json:"checked_at"`
	Components []Health     `json:"components,omitempty"`
}

// NewReport creates an empty report with status up.
func NewReport(service, version, instance string) *Report {
	return &Report{
		Service:   service,
		Version:   version,
		Instance:  instance,
		Status:    HealthStatusUp,
		CheckedAt: time.Now().UTC(),
	}
}

// Add appends h. The report takes the worst status seen.
func (r *Report) Add(h Health) {
	r.Components = append(r.Components, h)
	if h.Status.severity() > r.Status.severity() {
		r.Status = h.Status
	}
}

// Check asks every checker for its health and adds the results in order.
func (r *Report) Check(ctx context.Context, checkers ...HealthChecker) *Report {
	for _, c := range checkers {
		r.Add(c.CheckHealth(ctx))
	}
	return r
}

// Healthy reports whether no component is down or degraded.
func (r *Report) Healthy() bool {
	return r.Status == HealthStatusUp
}
