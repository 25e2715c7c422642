package database

import (
	"context"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/google/uuid"
)

// TodoRepositoryInterface is the todo store contract plus single-record reads
// used by the repair worker
type TodoRepositoryInterface interface {
	todos.Remote
	GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.Todo, error)
}

// UserRepositoryInterface defines the interface for user repository operations
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// Ensure concrete types implement the interfaces
var (
	_ TodoRepositoryInterface = (*TodoRepository)(nil)
	_ UserRepositoryInterface = (*UserRepository)(nil)
)
