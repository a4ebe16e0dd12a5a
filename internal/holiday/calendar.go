package holiday

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/civil"
)

// Calendar manages the account's non-working days.
type Calendar struct {
	repo Repository
}

func NewCalendar(repo Repository) *Calendar {
	return &Calendar{repo: repo}
}

type CreateInput struct {
	AccountID string      `json:"account_id"`
	ProjectID string      `json:"project_id"`
	Date      *civil.Date `json:"date"`
	Name      string      `json:"name"`
	Scope     Scope       `json:"scope"`
}

// ListFilter narrows a holiday listing. With a project the result is
// that project's rows plus the account's global rows; without one all
// of the account's rows are returned.
type ListFilter struct {
	AccountID string
	ProjectID string
	From      *civil.Date
	To        *civil.Date
}

func (c *Calendar) Create(ctx context.Context, in CreateInput) (*Holiday, error) {
	if in.AccountID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "account_id is required", nil)
	}
	if in.Name == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "name is required", nil)
	}
	if in.Date == nil || in.Date.IsZero() {
		return nil, cerr.NewError(cerr.InvalidArgument, "date is required", nil)
	}
	if in.Scope == "" {
		in.Scope = ScopeGlobal
	}
	if !in.Scope.Valid() {
		return nil, cerr.NewError(cerr.InvalidArgument, "scope must be global or project", nil)
	}
	if in.Scope == ScopeProject && in.ProjectID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "project scope requires project_id", nil)
	}
	if in.Scope == ScopeGlobal {
		in.ProjectID = ""
	}

	now := time.Now().UTC()
	h := &Holiday{
		ID:        ulid.Make().String(),
		AccountID: in.AccountID,
		ProjectID: in.ProjectID,
		Date:      *in.Date,
		Name:      in.Name,
		Scope:     in.Scope,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.repo.Save(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (c *Calendar) Get(ctx context.Context, id string) (*Holiday, error) {
	return c.repo.Get(ctx, id)
}

func (c *Calendar) List(ctx context.Context, f ListFilter) ([]*Holiday, error) {
	if f.AccountID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "account_id is required", nil)
	}

	all, err := c.repo.List(ctx, f.AccountID)
	if err != nil {
		return nil, err
	}

	holidays := make([]*Holiday, 0, len(all))
	for _, h := range all {
		if f.ProjectID != "" && h.Scope == ScopeProject && h.ProjectID != f.ProjectID {
			continue
		}
		if f.From != nil && h.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && h.Date.After(*f.To) {
			continue
		}
		holidays = append(holidays, h)
	}
	return holidays, nil
}

// Remove deletes a holiday. Deleting a missing holiday is a no-op.
func (c *Calendar) Remove(ctx context.Context, id string) error {
	err := c.repo.Delete(ctx, id)
	if err != nil && cerr.IsCode(err, cerr.NotFound) {
		return nil
	}
	return err
}
