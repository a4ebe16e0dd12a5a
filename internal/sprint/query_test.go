package sprint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehub/scheduler/internal/taskcatalog"
	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/civil"
)

func seedSprints(t *testing.T, store *Store) map[string]*Sprint {
	t.Helper()
	ctx := context.Background()
	byName := map[string]*Sprint{}

	create := func(name, project string, status Status, tasks []TaskInput) {
		in := CreateInput{
			AccountID: "acc-1",
			ProjectID: project,
			Name:      name,
			StartsAt:  civil.MustParseDate("2026-03-02"),
			EndsAt:    civil.MustParseDate("2026-03-13"),
			Status:    status,
			Tasks:     tasks,
		}
		sp, err := store.Create(ctx, in)
		require.NoError(t, err)
		byName[name] = sp
	}

	create("alpha", "proj-1", StatusPlanning, []TaskInput{{TaskID: "task-1"}})
	create("beta", "proj-1", StatusActive, []TaskInput{{TaskID: "task-2", Status: AssignmentStretch}})
	create("gamma", "proj-2", StatusActive, nil)
	create("delta", "", StatusPlanning, nil)
	create("omega", "proj-1", StatusClosed, nil)
	return byName
}

func queryTestStore() *Store {
	return newTestStore(
		catalogTask("task-1", "proj-1"),
		catalogTask("task-2", "proj-1"),
		catalogTask("task-3", "proj-1"),
		catalogTask("task-4", "proj-2"),
	)
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	store := queryTestStore()
	seedSprints(t, store)

	names := func(sprints []*Sprint) []string {
		var out []string
		for _, sp := range sprints {
			out = append(out, sp.Name)
		}
		return out
	}

	all, err := store.List(ctx, ListFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	byProject, err := store.List(ctx, ListFilter{AccountID: "acc-1", ProjectID: "proj-1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta", "omega"}, names(byProject))

	unassigned, err := store.List(ctx, ListFilter{AccountID: "acc-1", WithoutProject: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"delta"}, names(unassigned))

	active, err := store.List(ctx, ListFilter{AccountID: "acc-1", Status: StatusActive})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"beta", "gamma"}, names(active))

	otherAccount, err := store.List(ctx, ListFilter{AccountID: "acc-2"})
	require.NoError(t, err)
	assert.Empty(t, otherAccount)
}

func TestStoreListProjectWinsOverWithoutProject(t *testing.T) {
	ctx := context.Background()
	store := queryTestStore()
	seedSprints(t, store)

	// A caller sending both gets the project's sprints, not the empty
	// intersection of the two filters.
	got, err := store.List(ctx, ListFilter{
		AccountID:      "acc-1",
		ProjectID:      "proj-1",
		WithoutProject: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	var names []string
	for _, sp := range got {
		names = append(names, sp.Name)
	}
	assert.ElementsMatch(t, []string{"alpha", "beta", "omega"}, names)
}

func TestStoreListValidation(t *testing.T) {
	ctx := context.Background()
	store := queryTestStore()

	_, err := store.List(ctx, ListFilter{})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)

	_, err = store.List(ctx, ListFilter{AccountID: "acc-1", Status: "archived"})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)
}

func TestStoreAvailableTasks(t *testing.T) {
	ctx := context.Background()
	store := queryTestStore()
	seedSprints(t, store)

	ids := func(tasks []*taskcatalog.TaskSummary) []string {
		var out []string
		for _, task := range tasks {
			out = append(out, task.ID)
		}
		return out
	}

	// task-1 is committed in an open sprint and drops out; task-2 is
	// only a stretch assignment and stays available.
	available, err := store.AvailableTasks(ctx, "acc-1", "proj-1", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"task-2", "task-3"}, ids(available))

	// Closing the sprint frees its committed task.
	alpha, err := store.Get(ctx, mustSprintID(t, store, "alpha"))
	require.NoError(t, err)
	_, err = store.Update(ctx, alpha.ID, UpdateInput{Version: alpha.Version, Status: statusp(StatusClosed)})
	require.NoError(t, err)

	available, err = store.AvailableTasks(ctx, "acc-1", "proj-1", "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"task-1", "task-2", "task-3"}, ids(available))

	// Status filter applies on top of availability.
	available, err = store.AvailableTasks(ctx, "acc-1", "proj-1", taskcatalog.StatusDone)
	require.NoError(t, err)
	assert.Empty(t, available)

	// No project, no candidates.
	available, err = store.AvailableTasks(ctx, "acc-1", "", "")
	require.NoError(t, err)
	assert.Empty(t, available)

	_, err = store.AvailableTasks(ctx, "", "proj-1", "")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)
	_, err = store.AvailableTasks(ctx, "acc-1", "proj-1", "paused")
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument), "got %v", err)
}

func mustSprintID(t *testing.T, store *Store, name string) string {
	t.Helper()
	sprints, err := store.List(context.Background(), ListFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	for _, sp := range sprints {
		if sp.Name == name {
			return sp.ID
		}
	}
	t.Fatalf("sprint %s not found", name)
	return ""
}
