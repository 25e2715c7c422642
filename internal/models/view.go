package models

// Filter selects todos by completion state
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// Valid reports whether f is a known filter
func (f Filter) Valid() bool {
	switch f {
	case FilterAll, FilterActive, FilterCompleted:
		return true
	default:
		return false
	}
}

// SortKey selects the ordering of the visible list
type SortKey string

const (
	SortCreated      SortKey = "created"
	SortUpdated      SortKey = "updated"
	SortPriority     SortKey = "priority"
	SortAlphabetical SortKey = "alphabetical"
	SortCategory     SortKey = "category"
)

// Valid reports whether s is a known sort key
func (s SortKey) Valid() bool {
	switch s {
	case SortCreated, SortUpdated, SortPriority, SortAlphabetical, SortCategory:
		return true
	default:
		return false
	}
}

// Counts summarises a todo list
type Counts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Total     int `json:"total"`
}
