package taskcatalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehub/scheduler/pkg/cerr"
)

type countingCatalog struct {
	tasks map[string]*TaskSummary
	gets  int
	lists int
}

func (c *countingCatalog) Get(_ context.Context, id string) (*TaskSummary, error) {
	c.gets++
	t, ok := c.tasks[id]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, "task not found", nil)
	}
	return t, nil
}

func (c *countingCatalog) ListByProject(_ context.Context, _, projectID string) ([]*TaskSummary, error) {
	c.lists++
	var tasks []*TaskSummary
	for _, t := range c.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func newCachedForTest(t *testing.T, inner Catalog) *Cached {
	t.Helper()
	c, err := NewCached(inner, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCachedGetReadThrough(t *testing.T) {
	ctx := context.Background()
	inner := &countingCatalog{tasks: map[string]*TaskSummary{
		"task-1": {ID: "task-1", ProjectID: "proj-1", Title: "A"},
	}}
	cached := newCachedForTest(t, inner)

	for i := 0; i < 3; i++ {
		task, err := cached.Get(ctx, "task-1")
		require.NoError(t, err)
		assert.Equal(t, "A", task.Title)
	}
	assert.Equal(t, 1, inner.gets)

	// Misses are not cached.
	_, err := cached.Get(ctx, "missing")
	assert.True(t, cerr.IsCode(err, cerr.NotFound), "got %v", err)
	_, err = cached.Get(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, 3, inner.gets)
}

func TestCachedInvalidate(t *testing.T) {
	ctx := context.Background()
	inner := &countingCatalog{tasks: map[string]*TaskSummary{
		"task-1": {ID: "task-1", ProjectID: "proj-1", Title: "A"},
	}}
	cached := newCachedForTest(t, inner)

	_, err := cached.Get(ctx, "task-1")
	require.NoError(t, err)

	inner.tasks["task-1"] = &TaskSummary{ID: "task-1", ProjectID: "proj-1", Title: "A (edited)"}
	cached.Invalidate()

	task, err := cached.Get(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, "A (edited)", task.Title)
	assert.Equal(t, 2, inner.gets)
}

func TestCachedListBypassesCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingCatalog{tasks: map[string]*TaskSummary{
		"task-1": {ID: "task-1", ProjectID: "proj-1", Title: "A"},
	}}
	cached := newCachedForTest(t, inner)

	for i := 0; i < 2; i++ {
		tasks, err := cached.ListByProject(ctx, "acc-1", "proj-1")
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	}
	assert.Equal(t, 2, inner.lists)
}
