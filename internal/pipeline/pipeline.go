// Package pipeline derives the visible todo list from the full list, a
// completion filter, a sort key and a search string. It holds no state.
package pipeline

import (
	"slices"
	"strings"

	"github.com/benvon/tasklist/internal/models"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Query describes what the caller wants to see
type Query struct {
	Filter models.Filter
	Sort   models.SortKey
	Search string
}

// DefaultQuery shows every todo, newest first
func DefaultQuery() Query {
	return Query{Filter: models.FilterAll, Sort: models.SortCreated}
}

// DefaultLocale is the root collation order
var DefaultLocale = language.Und

// Pipeline applies queries using locale-aware text comparison
type Pipeline struct {
	locale language.Tag
}

// New creates a pipeline that compares text according to locale
func New(locale language.Tag) *Pipeline {
	return &Pipeline{locale: locale}
}

// Apply runs q against todos with the root locale
func Apply(todos []*models.Todo, q Query) []*models.Todo {
	return New(DefaultLocale).Apply(todos, q)
}

// Apply filters todos, then sorts the survivors. The input slice is not
// modified; the returned slice shares its elements.
func (p *Pipeline) Apply(todos []*models.Todo, q Query) []*models.Todo {
	out := make([]*models.Todo, 0, len(todos))
	for _, t := range todos {
		if Matches(t, q.Filter, q.Search) {
			out = append(out, t)
		}
	}

	if cmp := p.comparator(q.Sort); cmp != nil {
		slices.SortStableFunc(out, cmp)
	}
	return out
}

// Matches reports whether a todo passes both the search and the filter.
// An unknown filter behaves like FilterAll.
func Matches(t *models.Todo, filter models.Filter, search string) bool {
	return matchesSearch(t, search) && matchesFilter(t, filter)
}

func matchesSearch(t *models.Todo, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.Text), needle) {
		return true
	}
	return t.Description != "" && strings.Contains(strings.ToLower(t.Description), needle)
}

func matchesFilter(t *models.Todo, filter models.Filter) bool {
	switch filter {
	case models.FilterActive:
		return !t.Completed
	case models.FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// comparator returns nil for an unknown key, which keeps list order
func (p *Pipeline) comparator(key models.SortKey) func(a, b *models.Todo) int {
	switch key {
	case models.SortCreated:
		return func(a, b *models.Todo) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case models.SortUpdated:
		return func(a, b *models.Todo) int { return b.UpdatedAt.Compare(a.UpdatedAt) }
	case models.SortPriority:
		return byPriority
	case models.SortAlphabetical:
		// collate.Collator is not safe for concurrent use; one per Apply call.
		col := collate.New(p.locale)
		return func(a, b *models.Todo) int { return col.CompareString(a.Text, b.Text) }
	case models.SortCategory:
		col := collate.New(p.locale)
		return func(a, b *models.Todo) int { return byCategory(col, a, b) }
	default:
		return nil
	}
}

func byPriority(a, b *models.Todo) int {
	return b.Priority.Rank() - a.Priority.Rank()
}

// byCategory puts uncategorised todos last, orders the rest by the name of
// their first category and breaks ties by descending priority.
func byCategory(col *collate.Collator, a, b *models.Todo) int {
	ac, aok := a.FirstCategory()
	bc, bok := b.FirstCategory()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	if c := col.CompareString(strings.ToLower(ac.Name), strings.ToLower(bc.Name)); c != 0 {
		return c
	}
	return byPriority(a, b)
}

// Counts tallies active and completed todos over the full list
func Counts(todos []*models.Todo) models.Counts {
	var c models.Counts
	for _, t := range todos {
		if t.Completed {
			c.Completed++
		} else {
			c.Active++
		}
	}
	c.Total = len(todos)
	return c
}
