package handlers

import (
	"net/http"
	"testing"

	"github.com/benvon/tasklist/internal/models"
)

func TestCategoryHandler_ListAndSuggest(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.create(t, map[string]any{"text": "a", "categories": []map[string]string{category("Work", "Blue"), category("Home", "Rose")}})
	env.create(t, map[string]any{"text": "b", "categories": []map[string]string{category("Work", "Blue")}})

	var all []CategoryResponse
	decodeData(t, env.do(http.MethodGet, "/api/v1/categories", nil), &all)
	if len(all) != 2 {
		t.Fatalf("Expected two distinct categories, got %+v", all)
	}
	for _, c := range all {
		if c.TextColor == "" {
			t.Errorf("Expected text color for %q", c.Name)
		}
	}

	var suggested []CategoryResponse
	decodeData(t, env.do(http.MethodGet, "/api/v1/categories/suggest?q=WO", nil), &suggested)
	if len(suggested) != 1 || suggested[0].Name != "Work" {
		t.Errorf("Expected Work to be suggested, got %+v", suggested)
	}

	var none []CategoryResponse
	decodeData(t, env.do(http.MethodGet, "/api/v1/categories/suggest", nil), &none)
	if len(none) != 0 {
		t.Errorf("Blank input must suggest nothing, got %+v", none)
	}
}

func TestCategoryHandler_UpdateColor(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	first := env.create(t, map[string]any{"text": "a", "categories": []map[string]string{category("Work", "Blue")}})
	second := env.create(t, map[string]any{"text": "b", "categories": []map[string]string{category("Work", "Blue"), category("Home", "Rose")}})
	env.create(t, map[string]any{"text": "c"})

	w := env.do(http.MethodPut, "/api/v1/categories/work/color", map[string]string{"color": "Purple"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp UpdateColorResponse
	decodeData(t, w, &resp)
	if len(resp.Result.Updated) != 2 || len(resp.Result.Failed) != 0 {
		t.Errorf("Expected both todos updated, got %+v", resp.Result)
	}
	if resp.Category.Name != "Work" || resp.Category.Color != "#ddd6fe" {
		t.Errorf("Unexpected category %+v", resp.Category)
	}

	var got TodoResponse
	decodeData(t, env.do(http.MethodGet, "/api/v1/todos/"+second.ID.String(), nil), &got)
	if got.Categories[0].Color != "#ddd6fe" || got.Categories[1].Color != "#fecaca" {
		t.Errorf("Only Work should change, got %+v", got.Categories)
	}
	decodeData(t, env.do(http.MethodGet, "/api/v1/todos/"+first.ID.String(), nil), &got)
	if got.Categories[0].Color != "#ddd6fe" {
		t.Errorf("Expected first todo recolored, got %+v", got.Categories)
	}
}

func TestCategoryHandler_UpdateColorPartialFailure(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	failing := env.create(t, map[string]any{"text": "a", "categories": []map[string]string{category("Work", "Blue")}})
	ok := env.create(t, map[string]any{"text": "b", "categories": []map[string]string{category("Work", "Blue")}})
	env.remote.setFailUpdate(failing.ID)

	w := env.do(http.MethodPut, "/api/v1/categories/Work/color", map[string]string{"color": "#bbf7d0"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d: %s", w.Code, w.Body.String())
	}
	var resp UpdateColorResponse
	decodeData(t, w, &resp)
	if len(resp.Result.Updated) != 1 || resp.Result.Updated[0] != ok.ID {
		t.Errorf("Expected only %s updated, got %+v", ok.ID, resp.Result.Updated)
	}
	if len(resp.Result.Failed) != 1 || resp.Result.Failed[0] != failing.ID {
		t.Errorf("Expected %s failed, got %+v", failing.ID, resp.Result.Failed)
	}

	var got TodoResponse
	decodeData(t, env.do(http.MethodGet, "/api/v1/todos/"+failing.ID.String(), nil), &got)
	if got.Categories[0].Color != "#bfdbfe" {
		t.Errorf("Failed todo must keep its old color locally, got %+v", got.Categories)
	}
}

func TestCategoryHandler_UpdateColorRejects(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	if w := env.do(http.MethodPut, "/api/v1/categories/Work/color", map[string]string{"color": "#000000"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for off-palette color, got %d", w.Code)
	}
	if w := env.do(http.MethodPut, "/api/v1/categories/Work/color", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing color, got %d", w.Code)
	}
}

func TestPaletteHandler(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/v1/palette", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp PaletteResponse
	decodeData(t, w, &resp)
	if len(resp.Colors) != len(models.Palette) {
		t.Errorf("Expected %d colors, got %d", len(models.Palette), len(resp.Colors))
	}
	if resp.Default != models.DefaultColor() {
		t.Errorf("Expected default %s, got %s", models.DefaultColor(), resp.Default)
	}
}
