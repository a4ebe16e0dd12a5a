package sprint

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pulsehub/scheduler/internal/taskcatalog"
	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/civil"
)

// Store owns sprint aggregates. All mutations validate the sprint
// invariants against the merged result and go through the repository
// as a single document write.
type Store struct {
	repo    Repository
	catalog taskcatalog.Catalog
}

func NewStore(repo Repository, catalog taskcatalog.Catalog) *Store {
	return &Store{repo: repo, catalog: catalog}
}

// TaskInput is one requested task assignment.
type TaskInput struct {
	TaskID        string           `json:"task_id"`
	PlannedHours  *int             `json:"planned_hours,omitempty"`
	PlannedPoints *float64         `json:"planned_points,omitempty"`
	Status        AssignmentStatus `json:"status,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Position      *int             `json:"position,omitempty"`
}

// CapacityInput is one requested capacity row. WeekStart may be any
// day of the target week; it is normalized to that week's Monday.
type CapacityInput struct {
	UserID    string     `json:"user_id"`
	WeekStart civil.Date `json:"week_start"`
	Hours     int        `json:"hours"`
}

type CreateInput struct {
	AccountID    string          `json:"account_id"`
	ProjectID    string          `json:"project_id,omitempty"`
	Name         string          `json:"name"`
	Goal         string          `json:"goal,omitempty"`
	SprintNumber *int            `json:"sprint_number,omitempty"`
	StartsAt     civil.Date      `json:"starts_at"`
	EndsAt       civil.Date      `json:"ends_at"`
	Status       Status          `json:"status,omitempty"`
	Tasks        []TaskInput     `json:"tasks"`
	Capacities   []CapacityInput `json:"capacities"`
}

// UpdateInput is a partial update. Nil fields keep their current
// value; non-nil Tasks/Capacities replace the full child set.
type UpdateInput struct {
	Version      int64            `json:"version"`
	Name         *string          `json:"name,omitempty"`
	Goal         *string          `json:"goal,omitempty"`
	ProjectID    *string          `json:"project_id,omitempty"`
	SprintNumber *int             `json:"sprint_number,omitempty"`
	StartsAt     *civil.Date      `json:"starts_at,omitempty"`
	EndsAt       *civil.Date      `json:"ends_at,omitempty"`
	Status       *Status          `json:"status,omitempty"`
	Tasks        *[]TaskInput     `json:"tasks,omitempty"`
	Capacities   *[]CapacityInput `json:"capacities,omitempty"`
}

// AssignmentPatch updates effort, commitment level or notes of one
// assignment. Nil fields keep their current value.
type AssignmentPatch struct {
	PlannedHours  *int              `json:"planned_hours,omitempty"`
	PlannedPoints *float64          `json:"planned_points,omitempty"`
	Status        *AssignmentStatus `json:"status,omitempty"`
	Notes         *string           `json:"notes,omitempty"`
}

func (s *Store) Create(ctx context.Context, in CreateInput) (*Sprint, error) {
	if in.AccountID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "account_id is required", nil)
	}
	if in.Name == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "name is required", nil)
	}
	status := in.Status
	if status == "" {
		status = StatusPlanning
	}
	if !status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid status %q", in.Status), nil)
	}
	if err := validateDates(in.StartsAt, in.EndsAt); err != nil {
		return nil, err
	}
	if in.SprintNumber != nil {
		if *in.SprintNumber < 0 {
			return nil, cerr.NewError(cerr.InvalidArgument, "sprint_number must not be negative", nil)
		}
		if err := s.checkSprintNumber(ctx, in.AccountID, in.ProjectID, *in.SprintNumber, ""); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	sp := &Sprint{
		ID:           ulid.Make().String(),
		AccountID:    in.AccountID,
		ProjectID:    in.ProjectID,
		Name:         in.Name,
		Goal:         in.Goal,
		SprintNumber: in.SprintNumber,
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		Status:       status,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tasks, err := s.buildAssignments(ctx, sp, in.Tasks)
	if err != nil {
		return nil, err
	}
	sp.Tasks = tasks
	for _, c := range in.Capacities {
		if err := validateCapacity(c); err != nil {
			return nil, err
		}
	}
	sp.Capacities = buildCapacities(sp, in.Capacities, now)

	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}
	return s.decorate(ctx, sp), nil
}

func (s *Store) Get(ctx context.Context, id string) (*Sprint, error) {
	sp, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.decorate(ctx, sp), nil
}

func (s *Store) Update(ctx context.Context, id string, in UpdateInput) (*Sprint, error) {
	sp, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(sp, in.Version); err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, cerr.NewError(cerr.InvalidArgument, "name is required", nil)
		}
		sp.Name = *in.Name
	}
	if in.Goal != nil {
		sp.Goal = *in.Goal
	}
	if in.StartsAt != nil {
		sp.StartsAt = *in.StartsAt
	}
	if in.EndsAt != nil {
		sp.EndsAt = *in.EndsAt
	}
	if err := validateDates(sp.StartsAt, sp.EndsAt); err != nil {
		return nil, err
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid status %q", *in.Status), nil)
		}
		if !sp.Status.CanTransitionTo(*in.Status) {
			return nil, cerr.NewError(cerr.InvalidArgument,
				fmt.Sprintf("illegal status transition %s -> %s", sp.Status, *in.Status), nil)
		}
		sp.Status = *in.Status
	}
	if in.ProjectID != nil {
		sp.ProjectID = *in.ProjectID
	}
	if in.SprintNumber != nil {
		if *in.SprintNumber < 0 {
			return nil, cerr.NewError(cerr.InvalidArgument, "sprint_number must not be negative", nil)
		}
		sp.SprintNumber = in.SprintNumber
	}
	if sp.SprintNumber != nil && (in.SprintNumber != nil || in.ProjectID != nil) {
		if err := s.checkSprintNumber(ctx, sp.AccountID, sp.ProjectID, *sp.SprintNumber, sp.ID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	if in.Tasks != nil {
		tasks, err := s.buildAssignments(ctx, sp, *in.Tasks)
		if err != nil {
			return nil, err
		}
		sp.Tasks = tasks
	} else if in.ProjectID != nil {
		// Project changed without resubmitting tasks: re-validate the
		// existing assignments against the new project. In particular a
		// sprint keeping assignments cannot lose its project.
		if err := s.revalidateAssignments(ctx, sp); err != nil {
			return nil, err
		}
	}
	if in.Capacities != nil {
		for _, c := range *in.Capacities {
			if err := validateCapacity(c); err != nil {
				return nil, err
			}
		}
		sp.Capacities = buildCapacities(sp, *in.Capacities, now)
	}

	sp.Version++
	sp.UpdatedAt = now
	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, err
	}
	return s.decorate(ctx, sp), nil
}

// Delete removes a sprint with its assignments and capacity entries.
// Deleting an unknown id succeeds so retries stay cheap.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if cerr.IsCode(err, cerr.NotFound) {
		return nil
	}
	return err
}

// AddTask appends one assignment to the sprint.
func (s *Store) AddTask(ctx context.Context, sprintID string, version int64, in TaskInput) (*Sprint, error) {
	sp, err := s.repo.Get(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(sp, version); err != nil {
		return nil, err
	}

	a, err := s.buildAssignment(ctx, sp, in, map[string]bool{})
	if err != nil {
		return nil, err
	}
	if sp.assignment(a.TaskID) != nil {
		return nil, cerr.NewError(cerr.InvalidArgument,
			fmt.Sprintf("task %s is already assigned to this sprint", a.TaskID), nil)
	}
	if in.Position == nil {
		a.Position = len(sp.Tasks)
	}
	sp.Tasks = append(sp.Tasks, a)

	return s.commit(ctx, sp)
}

// RemoveTask removes the assignment for taskID.
func (s *Store) RemoveTask(ctx context.Context, sprintID string, version int64, taskID string) (*Sprint, error) {
	sp, err := s.repo.Get(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(sp, version); err != nil {
		return nil, err
	}

	kept := sp.Tasks[:0]
	found := false
	for _, a := range sp.Tasks {
		if a.TaskID == taskID {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return nil, cerr.NewError(cerr.NotFound, "assignment not found", nil)
	}
	sp.Tasks = kept

	return s.commit(ctx, sp)
}

// Reorder assigns positions 0..n-1 following the given order. The id
// set must exactly match the sprint's current assignments; a partial
// reorder is rejected and positions stay untouched.
func (s *Store) Reorder(ctx context.Context, sprintID string, version int64, taskIDs []string) (*Sprint, error) {
	sp, err := s.repo.Get(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(sp, version); err != nil {
		return nil, err
	}

	if len(taskIDs) != len(sp.Tasks) {
		return nil, cerr.NewError(cerr.InvalidArgument,
			"reorder must list exactly the sprint's current task ids", nil)
	}
	byID := make(map[string]*Assignment, len(sp.Tasks))
	for _, a := range sp.Tasks {
		byID[a.TaskID] = a
	}
	ordered := make([]*Assignment, 0, len(taskIDs))
	for i, id := range taskIDs {
		a, ok := byID[id]
		if !ok {
			return nil, cerr.NewError(cerr.InvalidArgument,
				"reorder must list exactly the sprint's current task ids", nil)
		}
		delete(byID, id)
		a.Position = i
		ordered = append(ordered, a)
	}
	sp.Tasks = ordered

	return s.commit(ctx, sp)
}

// UpdateAssignment patches effort/status/notes of one assignment.
func (s *Store) UpdateAssignment(ctx context.Context, sprintID string, version int64, taskID string, patch AssignmentPatch) (*Sprint, error) {
	sp, err := s.repo.Get(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(sp, version); err != nil {
		return nil, err
	}

	a := sp.assignment(taskID)
	if a == nil {
		return nil, cerr.NewError(cerr.NotFound, "assignment not found", nil)
	}
	if patch.PlannedHours != nil {
		if *patch.PlannedHours < 0 {
			return nil, cerr.NewError(cerr.InvalidArgument, "planned_hours must not be negative", nil)
		}
		a.PlannedHours = patch.PlannedHours
	}
	if patch.PlannedPoints != nil {
		if *patch.PlannedPoints < 0 {
			return nil, cerr.NewError(cerr.InvalidArgument, "planned_points must not be negative", nil)
		}
		a.PlannedPoints = patch.PlannedPoints
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid assignment status %q", *patch.Status), nil)
		}
		a.Status = *patch.Status
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}

	return s.commit(ctx, sp)
}

// UpsertCapacity writes one capacity row keyed by (user, week). Two
// submissions for different days of the same week hit the same key;
// the later hours win.
func (s *Store) UpsertCapacity(ctx context.Context, sprintID string, version int64, in CapacityInput) (*Sprint, error) {
	sp, err := s.repo.Get(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(sp, version); err != nil {
		return nil, err
	}
	if err := validateCapacity(in); err != nil {
		return nil, err
	}

	now := time.Now()
	week := in.WeekStart.Monday()
	updated := false
	for _, c := range sp.Capacities {
		if c.UserID == in.UserID && c.WeekStart.Equal(week) {
			c.Hours = in.Hours
			c.UpdatedAt = now
			updated = true
			break
		}
	}
	if !updated {
		sp.Capacities = append(sp.Capacities, &CapacityEntry{
			ID:        ulid.Make().String(),
			SprintID:  sp.ID,
			AccountID: sp.AccountID,
			UserID:    in.UserID,
			WeekStart: week,
			Hours:     in.Hours,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return s.commit(ctx, sp)
}

// RemoveCapacity deletes one capacity row by id.
func (s *Store) RemoveCapacity(ctx context.Context, sprintID string, version int64, capacityID string) (*Sprint, error) {
	sp, err := s.repo.Get(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(sp, version); err != nil {
		return nil, err
	}
	if sp.capacity(capacityID) == nil {
		return nil, cerr.NewError(cerr.NotFound, "capacity entry not found", nil)
	}
	kept := sp.Capacities[:0]
	for _, c := range sp.Capacities {
		if c.ID != capacityID {
			kept = append(kept, c)
		}
	}
	sp.Capacities = kept

	return s.commit(ctx, sp)
}

func (s *Store) commit(ctx context.Context, sp *Sprint) (*Sprint, error) {
	sp.Version++
	sp.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, err
	}
	return s.decorate(ctx, sp), nil
}

func checkVersion(sp *Sprint, version int64) error {
	if version != sp.Version {
		return cerr.NewError(cerr.Aborted,
			fmt.Sprintf("sprint was modified concurrently (have version %d, got %d)", sp.Version, version), nil)
	}
	return nil
}

func validateDates(startsAt, endsAt civil.Date) error {
	if startsAt.IsZero() || endsAt.IsZero() {
		return cerr.NewError(cerr.InvalidArgument, "starts_at and ends_at are required", nil)
	}
	if endsAt.Before(startsAt) {
		return cerr.NewError(cerr.InvalidArgument, "ends_at must not be before starts_at", nil)
	}
	return nil
}

func validateCapacity(in CapacityInput) error {
	if in.UserID == "" {
		return cerr.NewError(cerr.InvalidArgument, "capacity user_id is required", nil)
	}
	if in.WeekStart.IsZero() {
		return cerr.NewError(cerr.InvalidArgument, "capacity week_start is required", nil)
	}
	if in.Hours < 0 {
		return cerr.NewError(cerr.InvalidArgument, "capacity hours must not be negative", nil)
	}
	return nil
}

// buildAssignments validates and materializes a full assignment list.
func (s *Store) buildAssignments(ctx context.Context, sp *Sprint, inputs []TaskInput) ([]*Assignment, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if sp.ProjectID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument,
			"a sprint without a project cannot carry task assignments", nil)
	}
	seen := make(map[string]bool, len(inputs))
	assignments := make([]*Assignment, 0, len(inputs))
	for i, in := range inputs {
		a, err := s.buildAssignment(ctx, sp, in, seen)
		if err != nil {
			return nil, err
		}
		if in.Position == nil {
			a.Position = i
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

func (s *Store) buildAssignment(ctx context.Context, sp *Sprint, in TaskInput, seen map[string]bool) (*Assignment, error) {
	if in.TaskID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "task_id is required", nil)
	}
	if sp.ProjectID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument,
			"a sprint without a project cannot carry task assignments", nil)
	}
	if seen[in.TaskID] {
		return nil, cerr.NewError(cerr.InvalidArgument,
			fmt.Sprintf("task %s appears more than once", in.TaskID), nil)
	}
	seen[in.TaskID] = true

	status := in.Status
	if status == "" {
		status = AssignmentCommitted
	}
	if !status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid assignment status %q", in.Status), nil)
	}
	if in.PlannedHours != nil && *in.PlannedHours < 0 {
		return nil, cerr.NewError(cerr.InvalidArgument, "planned_hours must not be negative", nil)
	}
	if in.PlannedPoints != nil && *in.PlannedPoints < 0 {
		return nil, cerr.NewError(cerr.InvalidArgument, "planned_points must not be negative", nil)
	}

	t, err := s.catalog.Get(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if t.ProjectID != sp.ProjectID {
		return nil, cerr.NewError(cerr.InvalidArgument,
			fmt.Sprintf("task %s does not belong to the sprint's project", in.TaskID), nil)
	}

	position := 0
	if in.Position != nil {
		position = *in.Position
	}
	return &Assignment{
		SprintID:      sp.ID,
		TaskID:        in.TaskID,
		AccountID:     sp.AccountID,
		PlannedHours:  in.PlannedHours,
		PlannedPoints: in.PlannedPoints,
		Status:        status,
		Notes:         in.Notes,
		Position:      position,
	}, nil
}

func (s *Store) revalidateAssignments(ctx context.Context, sp *Sprint) error {
	if len(sp.Tasks) == 0 {
		return nil
	}
	if sp.ProjectID == "" {
		return cerr.NewError(cerr.InvalidArgument,
			"cannot remove the project from a sprint with task assignments", nil)
	}
	for _, a := range sp.Tasks {
		t, err := s.catalog.Get(ctx, a.TaskID)
		if err != nil {
			return err
		}
		if t.ProjectID != sp.ProjectID {
			return cerr.NewError(cerr.InvalidArgument,
				fmt.Sprintf("task %s does not belong to the sprint's project", a.TaskID), nil)
		}
	}
	return nil
}

// buildCapacities normalizes week starts and collapses duplicate
// (user, week) rows, keeping the last submitted hours.
func buildCapacities(sp *Sprint, inputs []CapacityInput, now time.Time) []*CapacityEntry {
	type key struct {
		userID string
		week   string
	}
	index := make(map[key]*CapacityEntry, len(inputs))
	var entries []*CapacityEntry
	for _, in := range inputs {
		week := in.WeekStart.Monday()
		k := key{userID: in.UserID, week: week.String()}
		if existing, ok := index[k]; ok {
			existing.Hours = in.Hours
			existing.UpdatedAt = now
			continue
		}
		entry := &CapacityEntry{
			ID:        ulid.Make().String(),
			SprintID:  sp.ID,
			AccountID: sp.AccountID,
			UserID:    in.UserID,
			WeekStart: week,
			Hours:     in.Hours,
			CreatedAt: now,
			UpdatedAt: now,
		}
		index[k] = entry
		entries = append(entries, entry)
	}
	return entries
}

// decorate attaches catalog summaries to assignments. A task missing
// from the catalog leaves the reference nil rather than failing the
// read; the id is still returned.
func (s *Store) decorate(ctx context.Context, sp *Sprint) *Sprint {
	for _, a := range sp.Tasks {
		if t, err := s.catalog.Get(ctx, a.TaskID); err == nil {
			a.Task = t
		}
	}
	return sp
}

// checkSprintNumber enforces per-project uniqueness of the optional
// sequential sprint number.
func (s *Store) checkSprintNumber(ctx context.Context, accountID, projectID string, number int, selfID string) error {
	if projectID == "" {
		return nil
	}
	all, err := s.repo.List(ctx, accountID)
	if err != nil {
		return err
	}
	for _, other := range all {
		if other.ID == selfID || other.ProjectID != projectID || other.SprintNumber == nil {
			continue
		}
		if *other.SprintNumber == number {
			return cerr.NewError(cerr.InvalidArgument,
				fmt.Sprintf("sprint_number %d is already used in this project", number), nil)
		}
	}
	return nil
}
