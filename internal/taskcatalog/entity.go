package taskcatalog

import "github.com/pulsehub/scheduler/pkg/civil"

// TaskStatus is the closed status vocabulary of the upstream tracker.
type TaskStatus string

const (
	StatusBacklog    TaskStatus = "backlog"
	StatusPlanned    TaskStatus = "planned"
	StatusInProgress TaskStatus = "in_progress"
	StatusReview     TaskStatus = "review"
	StatusBlocked    TaskStatus = "blocked"
	StatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusBacklog, StatusPlanned, StatusInProgress, StatusReview, StatusBlocked, StatusDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// TaskSummary is the read-only projection of a tracker task that the
// scheduler consumes. The scheduler never owns or mutates these rows;
// they are referenced by id from sprint assignments.
type TaskSummary struct {
	ID            string       `yaml:"id" json:"id"`
	AccountID     string       `yaml:"account_id" json:"account_id"`
	ProjectID     string       `yaml:"project_id" json:"project_id"`
	Title         string       `yaml:"title" json:"title"`
	Status        TaskStatus   `yaml:"status" json:"status"`
	Priority      TaskPriority `yaml:"priority" json:"priority"`
	EstimateHours *int         `yaml:"estimate_hours,omitempty" json:"estimate_hours,omitempty"`
	StoryPoints   *float64     `yaml:"story_points,omitempty" json:"story_points,omitempty"`
	DueDate       *civil.Date  `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	AssigneeID    string       `yaml:"assignee_id,omitempty" json:"assignee_id,omitempty"`
}
