package taskcatalog

import "context"

// Catalog exposes task summaries owned by the upstream task-tracking
// subsystem. Implementations are read-only from the scheduler's side.
type Catalog interface {
	// Get returns the summary for a task id, or a NotFound error.
	Get(ctx context.Context, id string) (*TaskSummary, error)
	// ListByProject returns the tasks of a project within an account.
	ListByProject(ctx context.Context, accountID, projectID string) ([]*TaskSummary, error)
}
