package sprint

import (
	"context"
	"fmt"

	"github.com/pulsehub/scheduler/internal/taskcatalog"
	"github.com/pulsehub/scheduler/pkg/cerr"
)

// ListFilter narrows a sprint listing. ProjectID takes precedence over
// WithoutProject; only when no project is given does WithoutProject
// restrict the result to sprints with no owning project.
type ListFilter struct {
	AccountID      string
	ProjectID      string
	WithoutProject bool
	Status         Status
}

func (s *Store) List(ctx context.Context, f ListFilter) ([]*Sprint, error) {
	if f.AccountID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "account_id is required", nil)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid status %q", f.Status), nil)
	}

	all, err := s.repo.List(ctx, f.AccountID)
	if err != nil {
		return nil, err
	}

	sprints := make([]*Sprint, 0, len(all))
	for _, sp := range all {
		if f.ProjectID != "" {
			if sp.ProjectID != f.ProjectID {
				continue
			}
		} else if f.WithoutProject && sp.ProjectID != "" {
			continue
		}
		if f.Status != "" && sp.Status != f.Status {
			continue
		}
		sprints = append(sprints, s.decorate(ctx, sp))
	}
	return sprints, nil
}

// AvailableTasks returns the project's tasks that can still be
// proposed for a sprint: tasks with a committed assignment in any open
// (planning or active) sprint of the project are excluded, while
// stretch and optional assignments keep the task available elsewhere.
func (s *Store) AvailableTasks(ctx context.Context, accountID, projectID string, status taskcatalog.TaskStatus) ([]*taskcatalog.TaskSummary, error) {
	if accountID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "account_id is required", nil)
	}
	if status != "" && !status.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("invalid task status %q", status), nil)
	}
	if projectID == "" {
		return []*taskcatalog.TaskSummary{}, nil
	}

	tasks, err := s.catalog.ListByProject(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}

	committed, err := s.committedTaskIDs(ctx, accountID, projectID)
	if err != nil {
		return nil, err
	}

	available := make([]*taskcatalog.TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		if status != "" && t.Status != status {
			continue
		}
		if committed[t.ID] {
			continue
		}
		available = append(available, t)
	}
	return available, nil
}

func (s *Store) committedTaskIDs(ctx context.Context, accountID, projectID string) (map[string]bool, error) {
	sprints, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	committed := make(map[string]bool)
	for _, sp := range sprints {
		if sp.ProjectID != projectID || !sp.Open() {
			continue
		}
		for _, a := range sp.Tasks {
			if a.Status == AssignmentCommitted {
				committed[a.TaskID] = true
			}
		}
	}
	return committed, nil
}
