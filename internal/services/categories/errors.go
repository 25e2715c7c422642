package categories

import (
	"errors"
	"fmt"

	"github.com/benvon/tasklist/internal/models"
)

var (
	ErrEmptyName         = errors.New("category name cannot be empty")
	ErrNameTooLong       = fmt.Errorf("category name cannot exceed %d characters", MaxNameLength)
	ErrTooManyCategories = fmt.Errorf("a todo can have at most %d categories", models.MaxCategoriesPerTodo)
	ErrDuplicateName     = errors.New("category names on a todo must be unique (case-insensitive)")
	ErrIndexOutOfRange   = errors.New("category index out of range")
)
