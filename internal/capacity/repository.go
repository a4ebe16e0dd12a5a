package capacity

import "context"

type Repository interface {
	Get(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, accountID string) ([]*Entry, error)
	Save(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
}
