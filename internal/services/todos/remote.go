package todos

import (
	"context"

	"github.com/benvon/tasklist/internal/models"
	"github.com/google/uuid"
)

// Remote is the durable record store behind a Store. Every call is scoped to
// a user; Update and Delete must match both id and userID so a user can only
// touch their own records.
type Remote interface {
	// ListByUser returns the user's todos ordered by created_at descending
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Todo, error)
	// Insert stores a new todo
	Insert(ctx context.Context, userID uuid.UUID, todo *models.Todo) error
	// Update writes the non-nil fields of patch
	Update(ctx context.Context, userID, id uuid.UUID, patch models.TodoPatch) error
	// Delete removes a todo
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
