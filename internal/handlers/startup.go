package handlers

import (
	"context"
	"net/http"
	"sync"
)

// Startup step names reported by /healthz
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepServices   = "Initializing services"
	StepAudio      = "Preparing audio output"
	StepReady      = "Server ready"
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	Ready    bool
	Current  string
	Progress int
	Steps    []StartupStep
	checks   []namedCheck
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a tracker for the named steps
func NewStartupStatus(steps ...string) *StartupStatus {
	status := &StartupStatus{Current: "Initializing..."}
	for _, name := range steps {
		status.Steps = append(status.Steps, StartupStep{Name: name})
	}
	return status
}

// DefaultStartupStatus tracks the server's own boot sequence
func DefaultStartupStatus() *StartupStatus {
	return NewStartupStatus(StepDatabase, StepMigrations, StepServices, StepAudio, StepReady)
}

// SetCurrentStep updates the current initialization step
func (s *StartupStatus) SetCurrentStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Current = step
}

// CompleteStep marks a step as completed and updates progress
func (s *StartupStatus) CompleteStep(stepName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.Steps {
		if s.Steps[i].Name == stepName {
			s.Steps[i].Completed = true
			break
		}
	}

	if len(s.Steps) == 0 {
		return
	}
	completed := 0
	for _, step := range s.Steps {
		if step.Completed {
			completed++
		}
	}
	s.Progress = (completed * 100) / len(s.Steps)
}

// MarkReady marks the server as fully initialized
func (s *StartupStatus) MarkReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Steps {
		s.Steps[i].Completed = true
	}
	s.Ready = true
	s.Current = StepReady
	s.Progress = 100
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Ready
}

// AddCheck registers a dependency probed by Health once startup is done
func (s *StartupStatus) AddCheck(name string, check HealthCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, namedCheck{name: name, check: check})
}

type healthResponse struct {
	Status   string            `json:"status"`
	Current  string            `json:"current"`
	Progress int               `json:"progress"`
	Steps    []StartupStep     `json:"steps"`
	Failures map[string]string `json:"failures,omitempty"`
}

// Health reports readiness. It answers 503 until every startup step is
// done, and afterwards whenever a registered check fails.
func (s *StartupStatus) Health(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := healthResponse{
		Status:   "starting",
		Current:  s.Current,
		Progress: s.Progress,
		Steps:    append([]StartupStep(nil), s.Steps...),
	}
	ready := s.Ready
	checks := append([]namedCheck(nil), s.checks...)
	s.mu.RUnlock()

	if !ready {
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	for _, c := range checks {
		if err := c.check(r.Context()); err != nil {
			if resp.Failures == nil {
				resp.Failures = make(map[string]string)
			}
			resp.Failures[c.name] = err.Error()
		}
	}
	if len(resp.Failures) > 0 {
		resp.Status = "degraded"
		respondJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	resp.Status = "ok"
	respondJSON(w, http.StatusOK, resp)
}
