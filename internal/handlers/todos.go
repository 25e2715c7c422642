package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/tasklist/internal/middleware"
	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/pipeline"
	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/benvon/tasklist/internal/session"
	"github.com/benvon/tasklist/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// MaxTodoTextLength is the maximum length for todo text
	MaxTodoTextLength = 10000
	// MaxDescriptionLength is the maximum length for a todo description
	MaxDescriptionLength = 10000
)

// TodoHandler handles todo-related requests
type TodoHandler struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(sessions *session.Manager, logger *zap.Logger) *TodoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers todo routes on the given router
// The router should already have the /todos prefix (e.g., from apiRouter.PathPrefix("/todos"))
func (h *TodoHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTodos).Methods("GET")
	r.HandleFunc("", h.CreateTodo).Methods("POST")
	r.HandleFunc("/{id}", h.GetTodo).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateTodo).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteTodo).Methods("DELETE")
	r.HandleFunc("/{id}/toggle", h.ToggleTodo).Methods("POST")
	r.HandleFunc("/{id}/priority", h.SetPriority).Methods("PUT")
}

// CategoryInput is a category as entered on a todo
type CategoryInput struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color" validate:"required,palette_color"`
}

// CreateTodoRequest represents a create todo request
type CreateTodoRequest struct {
	Text        string          `json:"text" validate:"required,max=10000"`
	Description string          `json:"description" validate:"max=10000"`
	Priority    string          `json:"priority" validate:"omitempty,priority"`
	Categories  []CategoryInput `json:"categories" validate:"dive"`
}

// UpdateTodoRequest represents an edit. Text is always replaced; omitted
// optional fields keep their current value.
type UpdateTodoRequest struct {
	Text        string           `json:"text" validate:"required,max=10000"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=10000"`
	Priority    *string          `json:"priority,omitempty" validate:"omitempty,priority"`
	Categories  *[]CategoryInput `json:"categories,omitempty" validate:"omitempty,dive"`
}

// SetPriorityRequest changes only the priority of a todo
type SetPriorityRequest struct {
	Priority string `json:"priority" validate:"required,priority"`
}

// ListQuery holds the list view parameters taken from the query string
type ListQuery struct {
	Filter string `validate:"omitempty,todo_filter"`
	Sort   string `validate:"omitempty,todo_sort"`
	Search string `validate:"max=200"`
}

// CategoryResponse is a category together with its contrasting text color
type CategoryResponse struct {
	Name      string       `json:"name"`
	Color     models.Color `json:"color"`
	TextColor string       `json:"text_color"`
}

// TodoResponse is the wire shape of a todo
type TodoResponse struct {
	ID          uuid.UUID          `json:"id"`
	Text        string             `json:"text"`
	Description string             `json:"description,omitempty"`
	Completed   bool               `json:"completed"`
	Priority    models.Priority    `json:"priority"`
	Categories  []CategoryResponse `json:"categories"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ListTodosResponse is the visible list together with the unfiltered counts
type ListTodosResponse struct {
	Todos  []TodoResponse `json:"todos"`
	Counts models.Counts  `json:"counts"`
	Filter models.Filter  `json:"filter"`
	Sort   models.SortKey `json:"sort"`
	Search string         `json:"search,omitempty"`
}

func toCategoryResponses(cats []models.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryResponse{Name: c.Name, Color: c.Color, TextColor: models.TextColorFor(c.Color)})
	}
	return out
}

func toTodoResponse(t *models.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Text:        t.Text,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    t.Priority,
		Categories:  toCategoryResponses(t.Categories),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// toCategories converts entered categories, accepting palette names as well as hex values
func toCategories(in []CategoryInput) ([]models.Category, error) {
	out := make([]models.Category, 0, len(in))
	for _, c := range in {
		color, err := models.ParseColor(c.Color)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Category{Name: validation.SanitizeText(c.Name), Color: color})
	}
	return out, nil
}

// openStore returns the signed-in user's store. It writes the error
// response itself and returns nil when the store is unavailable.
func openStore(w http.ResponseWriter, r *http.Request, sessions *session.Manager, logger *zap.Logger) *todos.Store {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return nil
	}

	store, err := sessions.Open(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, todos.ErrNoSession) {
			respondStoreError(w, err)
			return nil
		}
		// drop the empty store so the next request loads again
		sessions.Close(user.ID)
		logger.Warn("todo_load_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Failed to load todos")
		return nil
	}
	return store
}

func todoID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid todo ID")
		return uuid.Nil, false
	}
	return id, true
}

// ListTodos lists the visible todos for the authenticated user
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	lq := ListQuery{
		Filter: strings.ToLower(strings.TrimSpace(params.Get("filter"))),
		Sort:   strings.ToLower(strings.TrimSpace(params.Get("sort"))),
		Search: params.Get("q"),
	}
	if err := validation.Validate.Struct(lq); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", validation.Message(err))
		return
	}

	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}

	q := pipeline.DefaultQuery()
	if lq.Filter != "" {
		q.Filter = models.Filter(lq.Filter)
	}
	if lq.Sort != "" {
		q.Sort = models.SortKey(lq.Sort)
	}
	q.Search = lq.Search

	visible := store.View(q)
	out := make([]TodoResponse, 0, len(visible))
	for _, t := range visible {
		out = append(out, toTodoResponse(t))
	}

	respondJSON(w, http.StatusOK, ListTodosResponse{
		Todos:  out,
		Counts: store.Counts(),
		Filter: q.Filter,
		Sort:   q.Sort,
		Search: q.Search,
	})
}

// CreateTodo creates a new todo
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	var req CreateTodoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	req.Text = validation.SanitizeText(req.Text)
	if req.Text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required and cannot be empty after sanitization")
		return
	}

	cats, err := toCategories(req.Categories)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	var priority models.Priority
	if req.Priority != "" {
		if priority, err = models.ParsePriority(req.Priority); err != nil {
			respondStoreError(w, err)
			return
		}
	}

	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}

	ctx := r.Context()
	resolved, err := store.ResolveCategories(ctx, cats)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	todo, err := store.Add(ctx, todos.NewTodo{
		Text:        req.Text,
		Description: validation.SanitizeText(req.Description),
		Priority:    priority,
		Categories:  resolved,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toTodoResponse(todo))
}

// GetTodo retrieves a todo by ID
func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}

	todo, err := store.Get(id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTodoResponse(todo))
}

// UpdateTodo edits the text and any supplied optional fields of a todo
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	var req UpdateTodoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	req.Text = validation.SanitizeText(req.Text)
	if req.Text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required and cannot be empty after sanitization")
		return
	}

	edit := todos.Edit{Text: req.Text}
	if req.Description != nil {
		d := validation.SanitizeText(*req.Description)
		edit.Description = &d
	}
	if req.Priority != nil {
		p, err := models.ParsePriority(*req.Priority)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		edit.Priority = &p
	}

	var entered []models.Category
	if req.Categories != nil {
		cats, err := toCategories(*req.Categories)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		entered = cats
	}

	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}
	ctx := r.Context()

	// resolve only once the todo is known to exist, so a bad id never recolors anything
	if _, err := store.Get(id); err != nil {
		respondStoreError(w, err)
		return
	}
	if req.Categories != nil {
		resolved, err := store.ResolveCategories(ctx, entered)
		if err != nil {
			respondStoreError(w, err)
			return
		}
		edit.Categories = &resolved
	}

	todo, err := store.EditFields(ctx, id, edit)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTodoResponse(todo))
}

// DeleteTodo deletes a todo
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}

	if err := store.Delete(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleTodo flips the completed flag of a todo
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}

	todo, err := store.Toggle(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTodoResponse(todo))
}

// SetPriority changes only the priority of a todo
func (h *TodoHandler) SetPriority(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	var req SetPriorityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	priority, err := models.ParsePriority(req.Priority)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}

	todo, err := store.SetPriority(r.Context(), id, priority)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toTodoResponse(todo))
}
