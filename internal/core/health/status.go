package health

import "time"

// Status values.
const (
	StatusUp       = "UP"
	StatusDegraded = "DEGRADED"
)

// Status captures the state of the service at a moment in time.
type Status struct {
	Service      string             `json:"service"`
	Version      string             `json:"version"`
	Environment  string             `json:"environment"`
	Status       string             `json:"status"`
	StartedAt    time.Time          `json:"startedAt"`
	Uptime       string             `json:"uptime"`
	UptimeSecs   int64              `json:"uptimeSeconds"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus reports one dependency check.
type DependencyStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Healthy reports whether every dependency is up.
func (s Status) Healthy() bool {
	return s.Status == StatusUp
}
