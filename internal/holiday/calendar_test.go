package holiday

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
	holidays map[string]*Holiday
}

func newMemRepository() *memRepository {
	return &memRepository{holidays: map[string]*Holiday{}}
}

func (r *memRepository) Get(_ context.Context, id string) (*Holiday, error) {
	h, ok := r.holidays[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "holiday not found", nil)
	}
	copied := *h
	return &copied, nil
}

func (r *memRepository) List(ctx context.Context, accountID string) ([]*Holiday, error) {
	var ids []string
	for id := range r.holidays {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var all []*Holiday
	for _, id := range ids {
		h, _ := r.Get(ctx, id)
		if accountID != "" && h.AccountID != accountID {
			continue
		}
		all = append(all, h)
	}
	return all, nil
}

func (r *memRepository) Save(_ context.Context, h *Holiday) error {
	copied := *h
	r.holidays[h.ID] = &copied
	return nil
}

func (r *memRepository) Delete(_ context.Context, id string) error {
	if _, ok := r.holidays[id]; !ok {
		return cerr.NewError(cerr.NotFound, "holiday not found", nil)
	}
	delete(r.holidays, id)
	return nil
}

func datep(s string) *civil.Date { d := civil.MustParseDate(s); return &d }

func TestCalendarCreate(t *testing.T) {
	ctx := context.Background()
	cal := NewCalendar(newMemRepository())

	h, err := cal.Create(ctx, CreateInput{
		AccountID: "acc-1",
		Date:      datep("2026-12-25"),
		Name:      "Christmas",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, ScopeGlobal, h.Scope)
	assert.Empty(t, h.ProjectID)

	p, err := cal.Create(ctx, CreateInput{
		AccountID: "acc-1",
		ProjectID: "proj-1",
		Date:      datep("2026-06-15"),
		Name:      "Release freeze",
		Scope:     ScopeProject,
	})
	require.NoError(t, err)
	assert.Equal(t, "proj-1", p.ProjectID)
}

func TestCalendarCreateValidation(t *testing.T) {
	ctx := context.Background()
	cal := NewCalendar(newMemRepository())

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing account", CreateInput{Date: datep("2026-12-25"), Name: "x"}},
		{"missing name", CreateInput{AccountID: "acc-1", Date: datep("2026-12-25")}},
		{"missing date", CreateInput{AccountID: "acc-1", Name: "x"}},
		{"bad scope", CreateInput{AccountID: "acc-1", Date: datep("2026-12-25"), Name: "x", Scope: "team"}},
		{"project scope without project", CreateInput{AccountID: "acc-1", Date: datep("2026-12-25"), Name: "x", Scope: ScopeProject}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := cal.Create(ctx, tt.in)
			assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)
		})
	}
}

func TestCalendarList(t *testing.T) {
	ctx := context.Background()
	cal := NewCalendar(newMemRepository())

	mustCreate := func(in CreateInput) {
		_, err := cal.Create(ctx, in)
		require.NoError(t, err)
	}
	mustCreate(CreateInput{AccountID: "acc-1", Date: datep("2026-01-01"), Name: "New Year"})
	mustCreate(CreateInput{AccountID: "acc-1", Date: datep("2026-12-25"), Name: "Christmas"})
	mustCreate(CreateInput{AccountID: "acc-1", ProjectID: "proj-1", Date: datep("2026-06-15"), Name: "Freeze", Scope: ScopeProject})
	mustCreate(CreateInput{AccountID: "acc-1", ProjectID: "proj-2", Date: datep("2026-06-16"), Name: "Other freeze", Scope: ScopeProject})

	names := func(hs []*Holiday) []string {
		var out []string
		for _, h := range hs {
			out = append(out, h.Name)
		}
		return out
	}

	// A project sees its own rows plus the global ones.
	forProject, err := cal.List(ctx, ListFilter{AccountID: "acc-1", ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"New Year", "Christmas", "Freeze"}, names(forProject))

	// No project filter: every row of the account, project-scoped ones
	// included.
	unfiltered, err := cal.List(ctx, ListFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"New Year", "Christmas", "Freeze", "Other freeze"}, names(unfiltered))

	// Date range bounds are inclusive.
	ranged, err := cal.List(ctx, ListFilter{
		AccountID: "acc-1",
		ProjectID: "proj-1",
		From:      datep("2026-06-01"),
		To:        datep("2026-12-25"),
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Freeze", "Christmas"}, names(ranged))

	_, err = cal.List(ctx, ListFilter{})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)
}

func TestCalendarGet(t *testing.T) {
	ctx := context.Background()
	cal := NewCalendar(newMemRepository())

	h, err := cal.Create(ctx, CreateInput{AccountID: "acc-1", Date: datep("2026-12-25"), Name: "Christmas"})
	require.NoError(t, err)

	got, err := cal.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.ID, got.ID)
	assert.Equal(t, "Christmas", got.Name)

	_, err = cal.Get(ctx, "no-such-holiday")
	assert.True(t, cerr.IsCode(err, cerr.NotFound), "got %v", err)
}

func TestCalendarRemove(t *testing.T) {
	ctx := context.Background()
	cal := NewCalendar(newMemRepository())

	h, err := cal.Create(ctx, CreateInput{AccountID: "acc-1", Date: datep("2026-01-01"), Name: "New Year"})
	require.NoError(t, err)

	require.NoError(t, cal.Remove(ctx, h.ID))
	require.NoError(t, cal.Remove(ctx, h.ID))

	hs, err := cal.List(ctx, ListFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	assert.Empty(t, hs)
}
