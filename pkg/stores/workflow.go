package stores

import (
	"log/slog"
	"sync"
	"time"

	"github.com/agentlens/agentlens/pkg/events"
)

// Step is one workflow step's reconciled state.
type Step struct {
	StepID      string
	StepName    string
	Status      string // pending | active | completed
	Error       string
	StartedAt   time.Time
	CompletedAt time.Time
}

// Transition is one recorded step-to-step handoff.
type Transition struct {
	FromStep string
	ToStep   string
	Reason   string
	At       time.Time
}

// WorkflowStore maps step ids to step status plus an ordered transition
// list. A workflow_started event clears both unconditionally — a new
// run supersedes the previous run's state.
type WorkflowStore struct {
	mu          sync.RWMutex
	runID       string
	name        string
	status      string
	steps       map[string]*Step
	order       []string // step ids in first-seen order
	transitions []Transition
}

// NewWorkflowStore creates an empty workflow store.
func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{steps: make(map[string]*Step)}
}

// Apply folds one event into the step map. Non-workflow events are
// ignored.
func (s *WorkflowStore) Apply(e events.Event) {
	switch e.Type {
	case events.EventTypeWorkflowStarted:
		p, err := e.WorkflowStarted()
		if err != nil {
			slog.Warn("Skipping undecodable workflow event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		s.runID = p.RunID
		s.name = p.WorkflowName
		s.status = "running"
		s.steps = make(map[string]*Step)
		s.order = nil
		s.transitions = nil
		// Steps declared upfront start out pending.
		for _, id := range p.Steps {
			s.upsertLocked(id).Status = events.StepStatusPending
		}
		s.mu.Unlock()

	case events.EventTypeWorkflowStepStarted:
		p, err := e.WorkflowStep()
		if err != nil {
			slog.Warn("Skipping undecodable workflow event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		step := s.upsertLocked(p.StepID)
		step.Status = events.StepStatusActive
		step.StartedAt = e.Time()
		if p.StepName != "" {
			step.StepName = p.StepName
		}
		s.mu.Unlock()

	case events.EventTypeWorkflowStepCompleted:
		p, err := e.WorkflowStep()
		if err != nil {
			slog.Warn("Skipping undecodable workflow event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		step := s.upsertLocked(p.StepID)
		step.Status = events.StepStatusCompleted
		step.CompletedAt = e.Time()
		step.Error = p.Error
		if p.StepName != "" {
			step.StepName = p.StepName
		}
		s.mu.Unlock()

	case events.EventTypeWorkflowTransition:
		p, err := e.WorkflowTransition()
		if err != nil {
			slog.Warn("Skipping undecodable workflow event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		s.transitions = append(s.transitions, Transition{
			FromStep: p.FromStep,
			ToStep:   p.ToStep,
			Reason:   p.Reason,
			At:       e.Time(),
		})
		s.mu.Unlock()

	case events.EventTypeWorkflowCompleted:
		p, err := e.WorkflowCompleted()
		if err != nil {
			slog.Warn("Skipping undecodable workflow event", "type", e.Type, "error", err)
			return
		}
		s.mu.Lock()
		s.status = p.Status
		s.mu.Unlock()
	}
}

// upsertLocked returns the step for id, inserting it if absent.
// Existing fields are never discarded by insertion. Caller holds s.mu.
func (s *WorkflowStore) upsertLocked(id string) *Step {
	if step, ok := s.steps[id]; ok {
		return step
	}
	step := &Step{StepID: id, Status: events.StepStatusPending}
	s.steps[id] = step
	s.order = append(s.order, id)
	return step
}

// Steps returns the steps in first-seen order.
func (s *WorkflowStore) Steps() []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Step, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.steps[id])
	}
	return out
}

// Step returns one step by id.
func (s *WorkflowStore) Step(id string) (Step, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	step, ok := s.steps[id]
	if !ok {
		return Step{}, false
	}
	return *step, true
}

// Transitions returns the recorded transitions in arrival order.
func (s *WorkflowStore) Transitions() []Transition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

// Run returns the current run id, workflow name, and status.
func (s *WorkflowStore) Run() (runID, name, status string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID, s.name, s.status
}

// Reset discards all state. Called on session change.
func (s *WorkflowStore) Reset() {
	s.mu.Lock()
	s.runID, s.name, s.status = "", "", ""
	s.steps = make(map[string]*Step)
	s.order = nil
	s.transitions = nil
	s.mu.Unlock()
}
