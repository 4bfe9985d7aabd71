package health

import (
	"context"
	"time"

	corehealth "3tcapital/ms_facturacion_ar/internal/core/health"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Checker probes one dependency. *pgxpool.Pool satisfies it through Ping.
type Checker interface {
	Ping(ctx context.Context) error
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	startedAt time.Time
	checks    map[string]Checker
	names     []string
}

func NewService(meta Metadata) *Service {
	return &Service{
		meta:      meta,
		startedAt: time.Now().UTC(),
		checks:    make(map[string]Checker),
	}
}

// AddCheck registers a dependency probed on every Status call.
func (s *Service) AddCheck(name string, checker Checker) {
	if _, exists := s.checks[name]; !exists {
		s.names = append(s.names, name)
	}
	s.checks[name] = checker
}

// Status returns the current availability snapshot. Any failing dependency
// turns the overall status DEGRADED.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.Truncate(time.Second).String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, name := range s.names {
		dep := corehealth.DependencyStatus{Name: name, Status: corehealth.StatusUp}

		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := s.checks[name].Ping(checkCtx)
		cancel()

		if err != nil {
			dep.Status = corehealth.StatusDegraded
			dep.Error = err.Error()
			status.Status = corehealth.StatusDegraded
		}
		status.Dependencies = append(status.Dependencies, dep)
	}

	return status
}
