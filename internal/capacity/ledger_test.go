package capacity

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/civil"
)

type memRepository struct {
	entries map[string]*Entry
}

func newMemRepository() *memRepository {
	return &memRepository{entries: map[string]*Entry{}}
}

func (r *memRepository) Get(_ context.Context, id string) (*Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "capacity entry not found", nil)
	}
	copied := *e
	return &copied, nil
}

func (r *memRepository) List(ctx context.Context, accountID string) ([]*Entry, error) {
	var ids []string
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var all []*Entry
	for _, id := range ids {
		e, _ := r.Get(ctx, id)
		if accountID != "" && e.AccountID != accountID {
			continue
		}
		all = append(all, e)
	}
	return all, nil
}

func (r *memRepository) Save(_ context.Context, e *Entry) error {
	copied := *e
	r.entries[e.ID] = &copied
	return nil
}

func (r *memRepository) Delete(_ context.Context, id string) error {
	if _, ok := r.entries[id]; !ok {
		return cerr.NewError(cerr.NotFound, "capacity entry not found", nil)
	}
	delete(r.entries, id)
	return nil
}

func intp(v int) *int            { return &v }
func datep(s string) *civil.Date { d := civil.MustParseDate(s); return &d }

func TestLedgerUpsert(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRepository())

	// Thursday normalizes to the Monday of that week.
	e, err := ledger.Upsert(ctx, UpsertInput{
		AccountID: "acc-1",
		UserID:    "user-1",
		WeekStart: datep("2026-03-05"),
		Hours:     intp(30),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "2026-03-02", e.WeekStart.String())
	assert.Equal(t, 30, e.Hours)

	// Same user, same week: the row is replaced, not duplicated.
	replaced, err := ledger.Upsert(ctx, UpsertInput{
		AccountID: "acc-1",
		UserID:    "user-1",
		WeekStart: datep("2026-03-02"),
		Hours:     intp(24),
	})
	require.NoError(t, err)
	assert.Equal(t, e.ID, replaced.ID)
	assert.Equal(t, 24, replaced.Hours)

	result, err := ledger.List(ctx, ListFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 24, result.TotalHours)
}

func TestLedgerUpsertValidation(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRepository())

	tests := []struct {
		name string
		in   UpsertInput
	}{
		{"missing account", UpsertInput{UserID: "u", WeekStart: datep("2026-03-02"), Hours: intp(10)}},
		{"missing user", UpsertInput{AccountID: "a", WeekStart: datep("2026-03-02"), Hours: intp(10)}},
		{"missing week", UpsertInput{AccountID: "a", UserID: "u", Hours: intp(10)}},
		{"missing hours", UpsertInput{AccountID: "a", UserID: "u", WeekStart: datep("2026-03-02")}},
		{"negative hours", UpsertInput{AccountID: "a", UserID: "u", WeekStart: datep("2026-03-02"), Hours: intp(-4)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Upsert(ctx, tt.in)
			assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)
		})
	}
}

func TestLedgerListFilters(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRepository())

	seed := []UpsertInput{
		{AccountID: "acc-1", UserID: "user-1", WeekStart: datep("2026-03-02"), Hours: intp(30)},
		{AccountID: "acc-1", UserID: "user-1", WeekStart: datep("2026-03-09"), Hours: intp(16)},
		{AccountID: "acc-1", UserID: "user-2", WeekStart: datep("2026-03-02"), Hours: intp(20)},
		{AccountID: "acc-2", UserID: "user-1", WeekStart: datep("2026-03-02"), Hours: intp(40)},
	}
	for _, in := range seed {
		_, err := ledger.Upsert(ctx, in)
		require.NoError(t, err)
	}

	all, err := ledger.List(ctx, ListFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	assert.Len(t, all.Entries, 3)
	assert.Equal(t, 66, all.TotalHours)

	byUser, err := ledger.List(ctx, ListFilter{AccountID: "acc-1", UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, byUser.Entries, 2)
	assert.Equal(t, 46, byUser.TotalHours)

	// The week filter normalizes too.
	byWeek, err := ledger.List(ctx, ListFilter{AccountID: "acc-1", WeekStart: datep("2026-03-04")})
	require.NoError(t, err)
	assert.Len(t, byWeek.Entries, 2)
	assert.Equal(t, 50, byWeek.TotalHours)

	_, err = ledger.List(ctx, ListFilter{})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)
}

func TestLedgerGet(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRepository())

	e, err := ledger.Upsert(ctx, UpsertInput{
		AccountID: "acc-1",
		UserID:    "user-1",
		WeekStart: datep("2026-03-02"),
		Hours:     intp(30),
	})
	require.NoError(t, err)

	got, err := ledger.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, 30, got.Hours)

	_, err = ledger.Get(ctx, "no-such-entry")
	assert.True(t, cerr.IsCode(err, cerr.NotFound), "got %v", err)
}

func TestLedgerRemove(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedger(newMemRepository())

	e, err := ledger.Upsert(ctx, UpsertInput{
		AccountID: "acc-1",
		UserID:    "user-1",
		WeekStart: datep("2026-03-02"),
		Hours:     intp(30),
	})
	require.NoError(t, err)

	require.NoError(t, ledger.Remove(ctx, e.ID))
	require.NoError(t, ledger.Remove(ctx, e.ID)) // idempotent

	result, err := ledger.List(ctx, ListFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}
