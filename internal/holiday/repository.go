package holiday

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Holiday, error)
	List(ctx context.Context, accountID string) ([]*Holiday, error)
	Save(ctx context.Context, h *Holiday) error
	Delete(ctx context.Context, id string) error
}
