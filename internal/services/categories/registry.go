// Package categories derives the category registry from a todo list and
// manages the category list of a todo while it is being created or edited.
package categories

import (
	"strings"

	"github.com/benvon/tasklist/internal/models"
)

// Registry is the set of category names known across a user's todos with
// the color each one was last seen with. It is derived bookkeeping: when the
// same name carries different colors, the occurrence scanned last wins.
type Registry struct {
	entries []models.Category
	index   map[string]int // lowercased name -> position in entries
}

// Existing builds a registry by scanning todos in list order
func Existing(todos []*models.Todo) *Registry {
	r := &Registry{index: make(map[string]int)}
	for _, t := range todos {
		for _, c := range t.Categories {
			r.observe(c)
		}
	}
	return r
}

func (r *Registry) observe(c models.Category) {
	c.Name = strings.TrimSpace(c.Name)
	key := strings.ToLower(c.Name)
	if i, ok := r.index[key]; ok {
		r.entries[i].Color = c.Color
		return
	}
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, c)
}

// Lookup finds a category by name, ignoring case
func (r *Registry) Lookup(name string) (models.Category, bool) {
	if r == nil {
		return models.Category{}, false
	}
	i, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.Category{}, false
	}
	return r.entries[i], true
}

// All returns the known categories in first-seen order
func (r *Registry) All() []models.Category {
	if r == nil {
		return []models.Category{}
	}
	return models.CloneCategories(r.entries)
}

// Len returns the number of distinct names
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Suggest returns categories whose name contains input, ignoring case.
// Blank input suggests nothing.
func (r *Registry) Suggest(input string) []models.Category {
	needle := strings.ToLower(strings.TrimSpace(input))
	out := []models.Category{}
	if needle == "" || r == nil {
		return out
	}
	for _, c := range r.entries {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			out = append(out, c)
		}
	}
	return out
}
