package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pulsehub/scheduler/internal/holiday"
	"github.com/pulsehub/scheduler/pkg/cerr"
	"github.com/pulsehub/scheduler/pkg/storage"
)

const holidaysPrefix = "holidays"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", holidaysPrefix, id)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*holiday.Holiday, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("holiday", err)
	}
	var h holiday.Holiday
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal holiday: %w", err))
	}
	return &h, nil
}

func (r *YAMLRepository) List(ctx context.Context, accountID string) ([]*holiday.Holiday, error) {
	paths, err := r.storage.List(ctx, holidaysPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("holidays", err)
	}

	var all []*holiday.Holiday
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var h holiday.Holiday
		if err := yaml.Unmarshal(data, &h); err != nil {
			continue
		}
		if accountID != "" && h.AccountID != accountID {
			continue
		}
		all = append(all, &h)
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return all[i].Name < all[j].Name
	})
	return all, nil
}

func (r *YAMLRepository) Save(ctx context.Context, h *holiday.Holiday) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal holiday: %w", err))
	}
	if err := r.storage.Write(ctx, path(h.ID), data); err != nil {
		return cerr.WrapStorageWriteError("holiday", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	if err := r.storage.Delete(ctx, path(id)); err != nil {
		return cerr.WrapStorageDeleteError("holiday", err)
	}
	return nil
}
