// Package todos holds the in-memory todo list of one signed-in user and
// keeps it in step with the remote record store.
//
// Every mutation writes to the Remote first and patches the local list only
// when that write succeeded, so the list never shows state that was not
// persisted.
package todos

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/pipeline"
	"github.com/benvon/tasklist/internal/queue"
	"github.com/benvon/tasklist/internal/services/categories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the single source of truth for one user's todos
type Store struct {
	remote      Remote
	userID      uuid.UUID
	logger      *zap.Logger
	view        *pipeline.Pipeline
	repairQueue queue.Enqueuer
	timeout     time.Duration
	now         func() time.Time
	newID       func() uuid.UUID

	mu     sync.RWMutex
	todos  []*models.Todo
	loaded bool
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for created/updated stamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides how new todo ids are minted
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// WithRepairQueue enqueues a category repair job whenever a recolor only
// reached part of the affected todos
func WithRepairQueue(q queue.Enqueuer) Option {
	return func(s *Store) {
		s.repairQueue = q
	}
}

// WithRemoteTimeout bounds every remote call. Zero disables the bound.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithPipeline sets the pipeline used by View
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(s *Store) {
		s.view = p
	}
}

// NewStore creates an empty, not yet loaded store for userID
func NewStore(remote Remote, userID uuid.UUID, log *zap.Logger, opts ...Option) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		remote: remote,
		userID: userID,
		logger: log,
		view:   pipeline.New(pipeline.DefaultLocale),
		now:    time.Now,
		newID:  uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserID returns the user the store belongs to
func (s *Store) UserID() uuid.UUID {
	return s.userID
}

// NewTodo holds the fields supplied when creating a todo
type NewTodo struct {
	Text        string
	Description string
	Priority    models.Priority
	Categories  []models.Category
}

// Edit holds the fields replaced by EditFields. Text is always replaced;
// nil fields keep their current value.
type Edit struct {
	Text        string
	Description *string
	Priority    *models.Priority
	Categories  *[]models.Category
}

// Load replaces the local list with the user's todos from the remote store.
// On failure the list is left empty. Either way the store counts as loaded
// afterwards.
func (s *Store) Load(ctx context.Context) error {
	if s.userID == uuid.Nil {
		return ErrNoSession
	}

	ctx, cancel := s.remoteContext(ctx)
	defer cancel()

	list, err := s.remote.ListByUser(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	if err != nil {
		s.todos = nil
		s.logger.Error("todo_load_failed",
			zap.String("user_id", s.userID.String()),
			zap.String("operation", "load"),
			zap.Error(err),
		)
		return fmt.Errorf("failed to load todos: %w", err)
	}

	s.todos = make([]*models.Todo, 0, len(list))
	for _, t := range list {
		s.todos = append(s.todos, t.Clone())
	}
	s.logger.Debug("todos_loaded",
		zap.String("user_id", s.userID.String()),
		zap.Int("count", len(s.todos)),
	)
	return nil
}

// Add creates a todo remotely and, once that succeeded, puts it at the front
// of the list. A blank priority becomes medium.
func (s *Store) Add(ctx context.Context, in NewTodo) (*models.Todo, error) {
	if s.userID == uuid.Nil {
		return nil, ErrNoSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrEmptyText
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, models.ErrInvalidPriority
	}
	if err := categories.Validate(in.Categories); err != nil {
		return nil, err
	}

	now := s.now()
	todo := &models.Todo{
		ID:          s.newID(),
		Text:        text,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Categories:  categories.Normalize(in.Categories),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	if err := s.remote.Insert(rctx, s.userID, todo); err != nil {
		s.logFailure("add", todo.ID, err)
		return nil, fmt.Errorf("failed to add todo: %w", err)
	}

	s.mu.Lock()
	next := make([]*models.Todo, 0, len(s.todos)+1)
	next = append(next, todo)
	next = append(next, s.todos...)
	s.todos = next
	s.mu.Unlock()

	return todo.Clone(), nil
}

// Toggle flips the completed flag of a todo
func (s *Store) Toggle(ctx context.Context, id uuid.UUID) (*models.Todo, error) {
	current, err := s.find(id)
	if err != nil {
		return nil, err
	}
	completed := !current.Completed
	return s.update(ctx, "toggle", current, models.TodoPatch{Completed: &completed})
}

// SetPriority changes only the priority of a todo
func (s *Store) SetPriority(ctx context.Context, id uuid.UUID, priority models.Priority) (*models.Todo, error) {
	if !priority.Valid() {
		return nil, models.ErrInvalidPriority
	}
	current, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, "set_priority", current, models.TodoPatch{Priority: &priority})
}

// EditFields replaces text and any supplied optional fields in one remote
// write. An empty description clears it.
func (s *Store) EditFields(ctx context.Context, id uuid.UUID, e Edit) (*models.Todo, error) {
	text := strings.TrimSpace(e.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	patch := models.TodoPatch{Text: &text}
	if e.Description != nil {
		d := strings.TrimSpace(*e.Description)
		patch.Description = &d
	}
	if e.Priority != nil {
		if !e.Priority.Valid() {
			return nil, models.ErrInvalidPriority
		}
		p := *e.Priority
		patch.Priority = &p
	}
	if e.Categories != nil {
		if err := categories.Validate(*e.Categories); err != nil {
			return nil, err
		}
		cats := categories.Normalize(*e.Categories)
		patch.Categories = &cats
	}

	current, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, "edit", current, patch)
}

// Delete removes a todo remotely, then locally
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.find(id); err != nil {
		return err
	}

	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	if err := s.remote.Delete(rctx, s.userID, id); err != nil {
		s.logFailure("delete", id, err)
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*models.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if t.ID != id {
			next = append(next, t)
		}
	}
	s.todos = next
	return nil
}

// update stamps patch, writes it remotely and then patches the local copy
func (s *Store) update(ctx context.Context, op string, current *models.Todo, patch models.TodoPatch) (*models.Todo, error) {
	patch.UpdatedAt = s.stamp(current)

	rctx, cancel := s.remoteContext(ctx)
	defer cancel()
	if err := s.remote.Update(rctx, s.userID, current.ID, patch); err != nil {
		s.logFailure(op, current.ID, err)
		return nil, fmt.Errorf("failed to %s todo: %w", strings.ReplaceAll(op, "_", " "), err)
	}

	if updated, ok := s.patchLocal(map[uuid.UUID]models.TodoPatch{current.ID: patch})[current.ID]; ok {
		return updated.Clone(), nil
	}
	// Removed locally while the remote call was in flight
	return patch.Apply(current), nil
}

// patchLocal applies patches to the current list in one replace and returns
// the patched records
func (s *Store) patchLocal(patches map[uuid.UUID]models.TodoPatch) map[uuid.UUID]*models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	patched := make(map[uuid.UUID]*models.Todo, len(patches))
	next := make([]*models.Todo, len(s.todos))
	for i, t := range s.todos {
		p, ok := patches[t.ID]
		if !ok {
			next[i] = t
			continue
		}
		next[i] = p.Apply(t)
		patched[t.ID] = next[i]
	}
	s.todos = next
	return patched
}

func (s *Store) find(id uuid.UUID) (*models.Todo, error) {
	if s.userID == uuid.Nil {
		return nil, ErrNoSession
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.todos {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return nil, ErrTodoNotFound
}

// stamp returns the updated_at for a mutation of t, never earlier than its
// creation time
func (s *Store) stamp(t *models.Todo) time.Time {
	now := s.now()
	if now.Before(t.CreatedAt) {
		return t.CreatedAt
	}
	return now
}

func (s *Store) remoteContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) logFailure(op string, id uuid.UUID, err error) {
	s.logger.Error("todo_"+op+"_failed",
		zap.String("user_id", s.userID.String()),
		zap.String("todo_id", id.String()),
		zap.String("operation", op),
		zap.Error(err),
	)
}

// Todos returns a deep copy of the list in store order
func (s *Store) Todos() []*models.Todo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Todo, len(s.todos))
	for i, t := range s.todos {
		out[i] = t.Clone()
	}
	return out
}

// Get returns a copy of one todo
func (s *Store) Get(id uuid.UUID) (*models.Todo, error) {
	return s.find(id)
}

// View runs the pipeline over a snapshot of the list
func (s *Store) View(q pipeline.Query) []*models.Todo {
	return s.view.Apply(s.Todos(), q)
}

// Counts returns the active/completed split of the whole list
func (s *Store) Counts() models.Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pipeline.Counts(s.todos)
}

// Registry derives the category registry from the current list
func (s *Store) Registry() *categories.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return categories.Existing(s.todos)
}

// Loaded reports whether a load has finished, successfully or not
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Invalidate marks the list as stale. The todos stay readable until the
// next load replaces them.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
}

// Reset drops every local todo and marks the store as not loaded
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.todos = nil
	s.loaded = false
	s.logger.Debug("todo_store_reset", zap.String("user_id", s.userID.String()))
}
