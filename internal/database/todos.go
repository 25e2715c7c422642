package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/tasklist/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when no row matches both id and user id
	ErrNotFound = errors.New("record not found")
	// ErrEmptyPatch is returned for an update that sets no fields
	ErrEmptyPatch = errors.New("update sets no fields")
)

const todoColumns = `id, text, description, completed, priority, categories, created_at, updated_at`

// TodoRepository stores todo records in Postgres. Every query is scoped by
// user_id, and updates and deletes also by id.
type TodoRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTodoRepository creates a new todo repository
func NewTodoRepository(db *DB) *TodoRepository {
	return &TodoRepository{db: db, logger: zap.NewNop()}
}

// SetLogger sets the logger used for query diagnostics
func (r *TodoRepository) SetLogger(logger *zap.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// ListByUser returns the user's todos, newest first
func (r *TodoRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	r.logger.Debug("todos_listed",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(todos)),
	)
	return todos, nil
}

// GetForUser returns one of the user's todos
func (r *TodoRepository) GetForUser(ctx context.Context, userID, id uuid.UUID) (*models.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1 AND user_id = $2`

	todo, err := scanTodo(r.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// Insert stores a new todo for the user
func (r *TodoRepository) Insert(ctx context.Context, userID uuid.UUID, todo *models.Todo) error {
	categoriesJSON, err := marshalCategories(todo.Categories)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO todos (id, user_id, text, description, completed, priority, categories, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		todo.ID,
		userID,
		todo.Text,
		nullableString(todo.Description),
		todo.Completed,
		string(todo.Priority),
		categoriesJSON,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

// Update writes the non-nil fields of patch to the user's todo
func (r *TodoRepository) Update(ctx context.Context, userID, id uuid.UUID, patch models.TodoPatch) error {
	set, args, err := buildTodoUpdate(patch)
	if err != nil {
		return err
	}
	args = append(args, id, userID)
	query := fmt.Sprintf(`UPDATE todos SET %s WHERE id = $%d AND user_id = $%d`, set, len(args)-1, len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return expectOneRow(result)
}

// Delete removes the user's todo
func (r *TodoRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return expectOneRow(result)
}

// buildTodoUpdate renders the SET clause for patch with $1.. placeholders
func buildTodoUpdate(patch models.TodoPatch) (string, []any, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Text != nil {
		add("text", *patch.Text)
	}
	if patch.Description != nil {
		add("description", nullableString(*patch.Description))
	}
	if patch.Completed != nil {
		add("completed", *patch.Completed)
	}
	if patch.Priority != nil {
		add("priority", string(*patch.Priority))
	}
	if patch.Categories != nil {
		categoriesJSON, err := marshalCategories(*patch.Categories)
		if err != nil {
			return "", nil, err
		}
		add("categories", categoriesJSON)
	}
	if len(sets) == 0 {
		return "", nil, ErrEmptyPatch
	}
	if !patch.UpdatedAt.IsZero() {
		add("updated_at", patch.UpdatedAt)
	}
	return strings.Join(sets, ", "), args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	todo := &models.Todo{}
	var description sql.NullString
	var priority string
	var categoriesJSON []byte

	err := row.Scan(
		&todo.ID,
		&todo.Text,
		&description,
		&todo.Completed,
		&priority,
		&categoriesJSON,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan todo: %w", err)
	}

	todo.Description = description.String
	todo.Priority = models.Priority(priority)
	if todo.Categories, err = unmarshalCategories(categoriesJSON); err != nil {
		return nil, err
	}
	return todo, nil
}

func marshalCategories(cats []models.Category) ([]byte, error) {
	if cats == nil {
		cats = []models.Category{}
	}
	b, err := json.Marshal(cats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal categories: %w", err)
	}
	return b, nil
}

func unmarshalCategories(b []byte) ([]models.Category, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var cats []models.Category
	if err := json.Unmarshal(b, &cats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
	}
	if len(cats) == 0 {
		return nil, nil
	}
	return cats, nil
}

// nullableString stores an empty string as NULL
func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
