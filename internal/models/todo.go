package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxCategoriesPerTodo is the number of categories a single todo can carry
const MaxCategoriesPerTodo = 3

var (
	// ErrInvalidPriority is returned for a priority outside low/medium/high
	ErrInvalidPriority = errors.New("invalid priority (must be 'low', 'medium', or 'high')")
	// ErrInvalidColor is returned for a color that is not part of the palette
	ErrInvalidColor = errors.New("invalid category color (must be one of the palette colors)")
)

// Priority represents how important a todo is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities for sorting: high=3, medium=2, low=1.
// Unknown values rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority converts a string into a Priority
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPriority
	}
	return p, nil
}

// Category is a label attached to a todo. Categories have no identity of their
// own: two categories are the same when their names match case-insensitively.
type Category struct {
	Name  string `json:"name"`
	Color Color  `json:"color"`
}

// SameName reports whether the category is named name, ignoring case
func (c Category) SameName(name string) bool {
	return strings.EqualFold(c.Name, name)
}

// Todo represents a todo item owned by a single user
type Todo struct {
	ID          uuid.UUID  `json:"id"`
	Text        string     `json:"text"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	Categories  []Category `json:"categories"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of the todo
func (t *Todo) Clone() *Todo {
	if t == nil {
		return nil
	}
	c := *t
	c.Categories = CloneCategories(t.Categories)
	return &c
}

// HasCategory reports whether the todo carries a category named name (case-insensitive)
func (t *Todo) HasCategory(name string) bool {
	for _, c := range t.Categories {
		if c.SameName(name) {
			return true
		}
	}
	return false
}

// FirstCategory returns the first category and whether one exists
func (t *Todo) FirstCategory() (Category, bool) {
	if len(t.Categories) == 0 {
		return Category{}, false
	}
	return t.Categories[0], true
}

// CloneCategories copies a category slice, preserving nil
func CloneCategories(in []Category) []Category {
	if in == nil {
		return nil
	}
	out := make([]Category, len(in))
	copy(out, in)
	return out
}

// RecolorCategories returns a copy of cats where every category named name
// (case-insensitive) carries color. The second return value reports whether
// anything matched.
func RecolorCategories(cats []Category, name string, color Color) ([]Category, bool) {
	out := CloneCategories(cats)
	matched := false
	for i := range out {
		if out[i].SameName(name) {
			out[i].Color = color
			matched = true
		}
	}
	return out, matched
}

// TodoPatch is a partial update of a todo record. Nil fields are left unchanged.
// An empty Description clears it.
type TodoPatch struct {
	Text        *string
	Description *string
	Completed   *bool
	Priority    *Priority
	Categories  *[]Category
	UpdatedAt   time.Time
}

// Apply returns a copy of todo with the patch applied
func (p TodoPatch) Apply(todo *Todo) *Todo {
	out := todo.Clone()
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Completed != nil {
		out.Completed = *p.Completed
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Categories != nil {
		out.Categories = CloneCategories(*p.Categories)
	}
	if !p.UpdatedAt.IsZero() {
		out.UpdatedAt = p.UpdatedAt
	}
	return out
}
