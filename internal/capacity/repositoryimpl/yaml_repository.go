package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pulsehub/scheduler/internal/capacity"
	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/storage"
)

const capacitiesPrefix = "capacities"

// YAMLRepository persists each capacity entry as one YAML file.
type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", capacitiesPrefix, id)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*capacity.Entry, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("capacity entry", err)
	}
	var e capacity.Entry
	if err := yaml.Unmarshal(data, &e); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal capacity entry: %w", err))
	}
	return &e, nil
}

func (r *YAMLRepository) List(ctx context.Context, accountID string) ([]*capacity.Entry, error) {
	paths, err := r.storage.List(ctx, capacitiesPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("capacity entries", err)
	}

	var all []*capacity.Entry
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var e capacity.Entry
		if err := yaml.Unmarshal(data, &e); err != nil {
			continue
		}
		if accountID != "" && e.AccountID != accountID {
			continue
		}
		all = append(all, &e)
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].WeekStart.Equal(all[j].WeekStart) {
			return all[i].WeekStart.Before(all[j].WeekStart)
		}
		return all[i].UserID < all[j].UserID
	})
	return all, nil
}

func (r *YAMLRepository) Save(ctx context.Context, e *capacity.Entry) error {
	data, err := yaml.Marshal(e)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal capacity entry: %w", err))
	}
	if err := r.storage.Write(ctx, path(e.ID), data); err != nil {
		return cerr.WrapStorageWriteError("capacity entry", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("capacity entry", err)
	}
	return nil
}
