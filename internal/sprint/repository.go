package sprint

import "context"

type Repository interface {
	Create(ctx context.Context, s *Sprint) error
	Get(ctx context.Context, id string) (*Sprint, error)
	// List returns all sprints of an account ordered by start date.
	List(ctx context.Context, accountID string) ([]*Sprint, error)
	Update(ctx context.Context, s *Sprint) error
	Delete(ctx context.Context, id string) error
}
