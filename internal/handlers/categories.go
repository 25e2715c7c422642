package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/benvon/tasklist/internal/session"
	"github.com/benvon/tasklist/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CategoryHandler serves the category registry and recolors categories
// across every todo of the signed-in user
type CategoryHandler struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(sessions *session.Manager, logger *zap.Logger) *CategoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryHandler{sessions: sessions, logger: logger}
}

// RegisterRoutes registers category routes on a router with the /categories prefix
func (h *CategoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListCategories).Methods("GET")
	r.HandleFunc("/suggest", h.SuggestCategories).Methods("GET")
	r.HandleFunc("/{name}/color", h.UpdateColor).Methods("PUT")
}

// UpdateColorRequest recolors a category
type UpdateColorRequest struct {
	Color string `json:"color" validate:"required,palette_color"`
}

// UpdateColorResponse reports which todos took the new color
type UpdateColorResponse struct {
	Category CategoryResponse        `json:"category"`
	Result   todos.PropagationResult `json:"result"`
}

// ListCategories returns every distinct category in use
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}
	respondJSON(w, http.StatusOK, toCategoryResponses(store.Registry().All()))
}

// SuggestCategories returns existing categories whose names contain q
func (h *CategoryHandler) SuggestCategories(w http.ResponseWriter, r *http.Request) {
	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}
	q := r.URL.Query().Get("q")
	respondJSON(w, http.StatusOK, toCategoryResponses(store.Registry().Suggest(q)))
}

// UpdateColor gives a category a new color on every todo that carries it
func (h *CategoryHandler) UpdateColor(w http.ResponseWriter, r *http.Request) {
	name := validation.SanitizeText(mux.Vars(r)["name"])
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Category name is required")
		return
	}

	var req UpdateColorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	color, err := models.ParseColor(req.Color)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	store := openStore(w, r, h.sessions, h.logger)
	if store == nil {
		return
	}

	result, err := store.UpdateCategoryColor(r.Context(), name, color)
	resp := UpdateColorResponse{
		Category: CategoryResponse{Name: name, Color: color, TextColor: models.TextColorFor(color)},
		Result:   result,
	}
	if existing, ok := store.Registry().Lookup(name); ok {
		resp.Category.Name = existing.Name
	}
	if err != nil {
		if errors.Is(err, todos.ErrPartialPropagation) {
			respondJSONErrorWithData(w, http.StatusBadGateway, "Bad Gateway", "Category color was not applied to every todo", resp)
			return
		}
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// PaletteHandler serves the fixed category palette
type PaletteHandler struct{}

// NewPaletteHandler creates a new palette handler
func NewPaletteHandler() *PaletteHandler {
	return &PaletteHandler{}
}

// RegisterRoutes registers the palette route on a router with the /palette prefix
func (h *PaletteHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetPalette).Methods("GET")
}

// PaletteResponse lists the palette and the color preselected for new categories
type PaletteResponse struct {
	Colors  []models.PaletteEntry `json:"colors"`
	Default models.Color          `json:"default"`
}

// GetPalette returns the palette
func (h *PaletteHandler) GetPalette(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, PaletteResponse{Colors: models.Palette, Default: models.DefaultColor()})
}
