package categories

import (
	"strings"
	"unicode/utf8"

	"github.com/benvon/tasklist/internal/models"
)

// MaxNameLength bounds a category name
const MaxNameLength = 50

// Outcome describes what Draft.Add did with a category name
type Outcome int

const (
	// OutcomeAdded means the name is new everywhere; only this todo uses it
	OutcomeAdded Outcome = iota
	// OutcomeRecolored means the draft already had the name and its color changed in place
	OutcomeRecolored
	// OutcomeAdopted means another todo already uses the name and the draft now does too
	OutcomeAdopted
)

// NeedsPropagation reports whether other todos must be recolored to keep
// one color per category name
func (o Outcome) NeedsPropagation() bool {
	return o != OutcomeAdded
}

func (o Outcome) String() string {
	switch o {
	case OutcomeRecolored:
		return "recolored"
	case OutcomeAdopted:
		return "adopted"
	default:
		return "added"
	}
}

// Draft is the category list of a todo being created or edited
type Draft struct {
	categories []models.Category
	existing   *Registry
}

// NewDraft starts a draft from a todo's current categories (nil for a new todo)
func NewDraft(initial []models.Category, existing *Registry) *Draft {
	return &Draft{
		categories: models.CloneCategories(initial),
		existing:   existing,
	}
}

// Add puts a category name with a color on the draft.
//
// A full draft (MaxCategoriesPerTodo entries) rejects every Add with
// ErrTooManyCategories, even for a name it already holds. Otherwise a name
// already on the draft keeps its slot and takes the new color, a name used by
// other todos is appended and anything else is appended as a new category.
func (d *Draft) Add(name string, color models.Color) (Outcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return OutcomeAdded, ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return OutcomeAdded, ErrNameTooLong
	}
	color = color.Normalize()
	if !color.Valid() {
		return OutcomeAdded, models.ErrInvalidColor
	}

	if len(d.categories) >= models.MaxCategoriesPerTodo {
		return OutcomeAdded, ErrTooManyCategories
	}

	for i := range d.categories {
		if d.categories[i].SameName(name) {
			d.categories[i].Color = color
			return OutcomeRecolored, nil
		}
	}

	d.categories = append(d.categories, models.Category{Name: name, Color: color})
	if _, ok := d.existing.Lookup(name); ok {
		return OutcomeAdopted, nil
	}
	return OutcomeAdded, nil
}

// Remove drops the category at index
func (d *Draft) Remove(index int) error {
	if index < 0 || index >= len(d.categories) {
		return ErrIndexOutOfRange
	}
	d.categories = append(d.categories[:index], d.categories[index+1:]...)
	return nil
}

// Categories returns the draft's categories, or nil when there are none
func (d *Draft) Categories() []models.Category {
	if len(d.categories) == 0 {
		return nil
	}
	return models.CloneCategories(d.categories)
}

// Len returns the number of categories on the draft
func (d *Draft) Len() int {
	return len(d.categories)
}

// Validate checks a category list against the per-todo rules: at most
// MaxCategoriesPerTodo entries, unique names, palette colors.
func Validate(cats []models.Category) error {
	if len(cats) > models.MaxCategoriesPerTodo {
		return ErrTooManyCategories
	}
	seen := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return ErrEmptyName
		}
		if utf8.RuneCountInString(name) > MaxNameLength {
			return ErrNameTooLong
		}
		if !c.Color.Valid() {
			return models.ErrInvalidColor
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return ErrDuplicateName
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Normalize returns a copy of cats with trimmed names and lowercased colors
func Normalize(cats []models.Category) []models.Category {
	out := models.CloneCategories(cats)
	for i := range out {
		out[i].Name = strings.TrimSpace(out[i].Name)
		out[i].Color = out[i].Color.Normalize()
	}
	return out
}
