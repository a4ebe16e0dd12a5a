// Package yamlcatalog reads task summaries from per-task YAML files
// maintained by the upstream tracker under the "tasks/" prefix.
package yamlcatalog

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pulsehub/scheduler/internal/taskcatalog"
	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/storage"
)

// Prefix is the storage prefix holding the task files.
const Prefix = "tasks"

type Catalog struct {
	storage storage.Storage
}

func New(s storage.Storage) *Catalog {
	return &Catalog{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", Prefix, id)
}

func (c *Catalog) Get(ctx context.Context, id string) (*taskcatalog.TaskSummary, error) {
	data, err := c.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("task", err)
	}
	var t taskcatalog.TaskSummary
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal task: %w", err))
	}
	return &t, nil
}

func (c *Catalog) ListByProject(ctx context.Context, accountID, projectID string) ([]*taskcatalog.TaskSummary, error) {
	paths, err := c.storage.List(ctx, Prefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("tasks", err)
	}

	sort.Strings(paths)

	var tasks []*taskcatalog.TaskSummary
	for _, p := range paths {
		data, err := c.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var t taskcatalog.TaskSummary
		if err := yaml.Unmarshal(data, &t); err != nil {
			continue
		}
		if accountID != "" && t.AccountID != accountID {
			continue
		}
		if t.ProjectID != projectID {
			continue
		}
		tasks = append(tasks, &t)
	}
	return tasks, nil
}
