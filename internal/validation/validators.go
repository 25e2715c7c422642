package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/tasklist/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	custom := map[string]validator.Func{
		"priority":      validatePriority,
		"palette_color": validatePaletteColor,
		"todo_filter":   validateTodoFilter,
		"todo_sort":     validateTodoSort,
	}
	for tag, fn := range custom {
		if err := Validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("failed to register %s validator: %v", tag, err))
		}
	}
}

func validatePriority(fl validator.FieldLevel) bool {
	_, err := models.ParsePriority(fl.Field().String())
	return err == nil
}

// palette colors may be given as hex ("#bfdbfe") or by name ("Blue")
func validatePaletteColor(fl validator.FieldLevel) bool {
	_, err := models.ParseColor(fl.Field().String())
	return err == nil
}

func validateTodoFilter(fl validator.FieldLevel) bool {
	return models.Filter(fl.Field().String()).Valid()
}

func validateTodoSort(fl validator.FieldLevel) bool {
	return models.SortKey(fl.Field().String()).Valid()
}

// Message turns a validation error into a short client-facing message
func Message(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "Validation failed"
	}
	fe := validationErrors[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s exceeds maximum length of %s", field, fe.Param())
	case "priority":
		return models.ErrInvalidPriority.Error()
	case "palette_color":
		return models.ErrInvalidColor.Error()
	case "todo_filter":
		return "invalid filter (must be 'all', 'active', or 'completed')"
	case "todo_sort":
		return "invalid sort (must be 'created', 'updated', 'priority', 'alphabetical', or 'category')"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}
