package todos

import "errors"

var (
	// ErrTodoNotFound is returned when an id is not in the local list
	ErrTodoNotFound = errors.New("todo not found")
	// ErrNoSession is returned by a store that has no signed-in user
	ErrNoSession = errors.New("no signed-in user")
	// ErrEmptyText is returned when a todo's text is blank after trimming
	ErrEmptyText = errors.New("todo text cannot be empty")
	// ErrEmptyCategoryName is returned when recoloring a blank category name
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
	// ErrPartialPropagation wraps the failures of a category recolor that
	// reached some todos but not all of them
	ErrPartialPropagation = errors.New("category color was not applied to every todo")
)
