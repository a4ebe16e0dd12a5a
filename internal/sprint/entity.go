package sprint

import (
	"time"

	"github.com/pulsehub/scheduler/internal/taskcatalog"
	"github.com/pulsehub/scheduler/pkg/civil"
)

// Status is the sprint lifecycle state. The machine is
// planning -> active -> closed, with planning -> closed allowed as a
// cancel path. Closed is terminal; the store never auto-advances on
// date boundaries.
type Status string

const (
	StatusPlanning Status = "planning"
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPlanning, StatusActive, StatusClosed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusPlanning:
		return next == StatusActive || next == StatusClosed
	case StatusActive:
		return next == StatusClosed
	case StatusClosed:
		return false
	}
	return false
}

// AssignmentStatus is the commitment level of a task assignment.
type AssignmentStatus string

const (
	AssignmentCommitted AssignmentStatus = "committed"
	AssignmentStretch   AssignmentStatus = "stretch"
	AssignmentOptional  AssignmentStatus = "optional"
)

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentCommitted, AssignmentStretch, AssignmentOptional:
		return true
	}
	return false
}

// Sprint is the aggregate root: the sprint record plus its task
// assignments and sprint-scoped capacity entries. The whole aggregate
// is persisted as one document, so every mutation is all-or-nothing.
type Sprint struct {
	ID           string    `yaml:"id" json:"id"`
	AccountID    string    `yaml:"account_id" json:"account_id"`
	ProjectID    string    `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	Name         string    `yaml:"name" json:"name"`
	Goal         string    `yaml:"goal,omitempty" json:"goal,omitempty"`
	SprintNumber *int      `yaml:"sprint_number,omitempty" json:"sprint_number,omitempty"`
	StartsAt     civil.Date `yaml:"starts_at" json:"starts_at"`
	EndsAt       civil.Date `yaml:"ends_at" json:"ends_at"`
	Status       Status    `yaml:"status" json:"status"`

	// Version is the optimistic-concurrency token. Every successful
	// write increments it; writers must present the version they last
	// observed.
	Version int64 `yaml:"version" json:"version"`

	CreatedAt time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at" json:"updated_at"`

	Tasks      []*Assignment    `yaml:"tasks" json:"tasks"`
	Capacities []*CapacityEntry `yaml:"capacities" json:"capacities"`
}

// Assignment ties one task to the sprint. (sprint, task) is unique;
// the referenced task must belong to the sprint's project.
type Assignment struct {
	SprintID      string           `yaml:"sprint_id" json:"sprint_id"`
	TaskID        string           `yaml:"task_id" json:"task_id"`
	AccountID     string           `yaml:"account_id" json:"account_id"`
	PlannedHours  *int             `yaml:"planned_hours,omitempty" json:"planned_hours,omitempty"`
	PlannedPoints *float64         `yaml:"planned_points,omitempty" json:"planned_points,omitempty"`
	Status        AssignmentStatus `yaml:"status" json:"status"`
	Notes         string           `yaml:"notes,omitempty" json:"notes,omitempty"`
	Position      int              `yaml:"position" json:"position"`

	// Task is the catalog projection looked up on read. It is never
	// persisted; the catalog stays the single source of truth.
	Task *taskcatalog.TaskSummary `yaml:"-" json:"task,omitempty"`
}

// CapacityEntry declares the hours a user can contribute in the
// calendar week starting at WeekStart (always a Monday).
type CapacityEntry struct {
	ID        string     `yaml:"id" json:"id"`
	SprintID  string     `yaml:"sprint_id,omitempty" json:"sprint_id,omitempty"`
	AccountID string     `yaml:"account_id" json:"account_id"`
	UserID    string     `yaml:"user_id" json:"user_id"`
	WeekStart civil.Date `yaml:"week_start" json:"week_start"`
	Hours     int        `yaml:"hours" json:"hours"`
	CreatedAt time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt time.Time  `yaml:"updated_at" json:"updated_at"`
}

func (s *Sprint) assignment(taskID string) *Assignment {
	for _, a := range s.Tasks {
		if a.TaskID == taskID {
			return a
		}
	}
	return nil
}

func (s *Sprint) capacity(id string) *CapacityEntry {
	for _, c := range s.Capacities {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Open reports whether the sprint still accepts committed work.
func (s *Sprint) Open() bool {
	return s.Status == StatusPlanning || s.Status == StatusActive
}
