package capacity

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/civil"
)

// Ledger manages standing weekly capacity declarations. One entry
// exists per (account, user, week); upserting the same week replaces
// the hours instead of adding a row.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

type UpsertInput struct {
	AccountID string      `json:"account_id"`
	UserID    string      `json:"user_id"`
	WeekStart *civil.Date `json:"week_start"`
	Hours     *int        `json:"hours"`
}

// ListFilter narrows a capacity listing. WeekStart matches after
// Monday normalization.
type ListFilter struct {
	AccountID string
	UserID    string
	WeekStart *civil.Date
}

type ListResult struct {
	Entries    []*Entry `json:"entries"`
	TotalHours int      `json:"total_hours"`
}

func (l *Ledger) Upsert(ctx context.Context, in UpsertInput) (*Entry, error) {
	if in.AccountID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "account_id is required", nil)
	}
	if in.UserID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "user_id is required", nil)
	}
	if in.WeekStart == nil || in.WeekStart.IsZero() {
		return nil, cerr.NewError(cerr.InvalidArgument, "week_start is required", nil)
	}
	if in.Hours == nil || *in.Hours < 0 {
		return nil, cerr.NewError(cerr.InvalidArgument, "hours must be zero or positive", nil)
	}
	week := in.WeekStart.Monday()

	existing, err := l.find(ctx, in.AccountID, in.UserID, week)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if existing != nil {
		existing.Hours = *in.Hours
		existing.UpdatedAt = now
		if err := l.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	e := &Entry{
		ID:        ulid.Make().String(),
		AccountID: in.AccountID,
		UserID:    in.UserID,
		WeekStart: week,
		Hours:     *in.Hours,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.repo.Save(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (l *Ledger) Get(ctx context.Context, id string) (*Entry, error) {
	return l.repo.Get(ctx, id)
}

func (l *Ledger) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	if f.AccountID == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "account_id is required", nil)
	}

	all, err := l.repo.List(ctx, f.AccountID)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Entries: []*Entry{}}
	for _, e := range all {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.WeekStart != nil && !e.WeekStart.Equal(f.WeekStart.Monday()) {
			continue
		}
		result.Entries = append(result.Entries, e)
		result.TotalHours += e.Hours
	}
	return result, nil
}

// Remove deletes an entry. Deleting an entry that does not exist is a
// no-op.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	err := l.repo.Delete(ctx, id)
	if err != nil && cerr.IsCode(err, cerr.NotFound) {
		return nil
	}
	return err
}

func (l *Ledger) find(ctx context.Context, accountID, userID string, week civil.Date) (*Entry, error) {
	all, err := l.repo.List(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for _, e := range all {
		if e.UserID == userID && e.WeekStart.Equal(week) {
			return e, nil
		}
	}
	return nil, nil
}
