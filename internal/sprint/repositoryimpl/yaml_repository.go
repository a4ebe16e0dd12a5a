package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pulsehub/scheduler/internal/sprint"
	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/storage"
)

const sprintsPrefix = "sprints"

// YAMLRepository persists each sprint aggregate as one YAML document.
// The storage layer's atomic write makes each mutation all-or-nothing:
// a sprint and its children are never visible half-updated.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", sprintsPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, s *sprint.Sprint) error {
	exists, err := r.storage.Exists(ctx, path(s.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("sprint", err)
	}
	if exists {
		return cerr.NewError(cerr.AlreadyExists, "sprint already exists", nil)
	}
	return r.write(ctx, s)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*sprint.Sprint, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("sprint", err)
	}
	var s sprint.Sprint
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal sprint: %w", err))
	}
	return &s, nil
}

func (r *YAMLRepository) List(ctx context.Context, accountID string) ([]*sprint.Sprint, error) {
	paths, err := r.storage.List(ctx, sprintsPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("sprints", err)
	}

	var all []*sprint.Sprint
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var s sprint.Sprint
		if err := yaml.Unmarshal(data, &s); err != nil {
			continue
		}
		if accountID != "" && s.AccountID != accountID {
			continue
		}
		all = append(all, &s)
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartsAt.Equal(all[j].StartsAt) {
			return all[i].StartsAt.Before(all[j].StartsAt)
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return all, nil
}

func (r *YAMLRepository) Update(ctx context.Context, s *sprint.Sprint) error {
	exists, err := r.storage.Exists(ctx, path(s.ID))
	if err != nil {
		return cerr.WrapStorageWriteError("sprint", err)
	}
	if !exists {
		return cerr.NewError(cerr.NotFound, "sprint not found", nil)
	}
	return r.write(ctx, s)
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("sprint", err)
	}
	return nil
}

func (r *YAMLRepository) write(ctx context.Context, s *sprint.Sprint) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal sprint: %w", err))
	}
	if err := r.storage.Write(ctx, path(s.ID), data); err != nil {
		return cerr.WrapStorageWriteError("sprint", err)
	}
	return nil
}
