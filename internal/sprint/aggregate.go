package sprint

import (
	"context"

	"github.com/pulsehub/scheduler/pkg/civil"
)

// Metrics are the derived numbers for one sprint. They are computed
// from the aggregate on every read and never persisted.
type Metrics struct {
	SprintID           string  `json:"sprint_id"`
	CommittedHours     int     `json:"committed_hours"`
	CommittedPoints    float64 `json:"committed_points"`
	TotalCapacityHours int     `json:"total_capacity_hours"`
	// RemainingHours may be negative: committed work exceeding declared
	// capacity is a reportable over-commitment, not an error.
	RemainingHours int `json:"remaining_hours"`
}

// CommittedHours sums planned_hours over committed assignments.
// Stretch and optional assignments do not count; missing hours count
// as zero.
func CommittedHours(sp *Sprint) int {
	total := 0
	for _, a := range sp.Tasks {
		if a.Status != AssignmentCommitted || a.PlannedHours == nil {
			continue
		}
		total += *a.PlannedHours
	}
	return total
}

// CommittedPoints sums planned_points over committed assignments.
func CommittedPoints(sp *Sprint) float64 {
	total := 0.0
	for _, a := range sp.Tasks {
		if a.Status != AssignmentCommitted || a.PlannedPoints == nil {
			continue
		}
		total += *a.PlannedPoints
	}
	return total
}

// TotalCapacityHours sums the declared hours of every capacity entry
// scoped to the sprint.
func TotalCapacityHours(sp *Sprint) int {
	total := 0
	for _, c := range sp.Capacities {
		total += c.Hours
	}
	return total
}

func RemainingHours(sp *Sprint) int {
	return TotalCapacityHours(sp) - CommittedHours(sp)
}

func ComputeMetrics(sp *Sprint) Metrics {
	return Metrics{
		SprintID:           sp.ID,
		CommittedHours:     CommittedHours(sp),
		CommittedPoints:    CommittedPoints(sp),
		TotalCapacityHours: TotalCapacityHours(sp),
		RemainingHours:     RemainingHours(sp),
	}
}

// VelocityReport is the trailing moving average of committed hours
// across closed sprints. Display-only.
type VelocityReport struct {
	AccountID     string     `json:"account_id"`
	ProjectID     string     `json:"project_id,omitempty"`
	AsOfWeek      civil.Date `json:"as_of_week"`
	Weeks         int        `json:"weeks"`
	ClosedSprints int        `json:"closed_sprints"`
	HoursPerWeek  float64    `json:"hours_per_week"`
}

// Velocity averages committed hours of closed sprints whose date range
// intersects the trailing `weeks` weeks before asOf, over that window.
func (s *Store) Velocity(ctx context.Context, accountID, projectID string, asOf civil.Date, weeks int) (*VelocityReport, error) {
	sprints, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	windowEnd := asOf.Monday()
	windowStart := windowEnd.AddDays(-7 * weeks)

	totalHours := 0
	closed := 0
	for _, sp := range sprints {
		if sp.Status != StatusClosed {
			continue
		}
		if projectID != "" && sp.ProjectID != projectID {
			continue
		}
		if sp.EndsAt.Before(windowStart) || !sp.StartsAt.Before(windowEnd) {
			continue
		}
		totalHours += CommittedHours(sp)
		closed++
	}

	return &VelocityReport{
		AccountID:     accountID,
		ProjectID:     projectID,
		AsOfWeek:      windowEnd,
		Weeks:         weeks,
		ClosedSprints: closed,
		HoursPerWeek:  float64(totalHours) / float64(weeks),
	}, nil
}
