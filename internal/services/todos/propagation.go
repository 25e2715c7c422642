package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/benvon/tasklist/internal/logger"
	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/queue"
	"github.com/benvon/tasklist/internal/services/categories"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PropagationResult reports how far a category recolor got
type PropagationResult struct {
	Updated []uuid.UUID `json:"updated"`
	Failed  []uuid.UUID `json:"failed"`
}

// UpdateCategoryColor gives every category named name (case-insensitive)
// the new color, across all todos. Other categories and the category's
// spelling are left alone.
//
// Each affected todo gets its own remote write. All of them are attempted;
// the local list is then patched in one replace for the todos whose write
// succeeded. Failures are returned joined under ErrPartialPropagation and,
// with a repair queue configured, handed to a repair job. A partial failure
// also marks the store stale so the next session open reloads it.
func (s *Store) UpdateCategoryColor(ctx context.Context, name string, color models.Color) (PropagationResult, error) {
	var result PropagationResult
	if s.userID == uuid.Nil {
		return result, ErrNoSession
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return result, ErrEmptyCategoryName
	}
	color = color.Normalize()
	if !color.Valid() {
		return result, models.ErrInvalidColor
	}

	s.mu.RLock()
	affected := make([]*models.Todo, 0)
	for _, t := range s.todos {
		if t.HasCategory(name) {
			affected = append(affected, t.Clone())
		}
	}
	s.mu.RUnlock()

	patches := make(map[uuid.UUID]models.TodoPatch, len(affected))
	var errs []error
	for _, t := range affected {
		cats, _ := models.RecolorCategories(t.Categories, name, color)
		patch := models.TodoPatch{Categories: &cats, UpdatedAt: s.stamp(t)}

		rctx, cancel := s.remoteContext(ctx)
		err := s.remote.Update(rctx, s.userID, t.ID, patch)
		cancel()
		if err != nil {
			s.logFailure("recolor", t.ID, err)
			result.Failed = append(result.Failed, t.ID)
			errs = append(errs, fmt.Errorf("todo %s: %w", t.ID, err))
			continue
		}
		patches[t.ID] = patch
		result.Updated = append(result.Updated, t.ID)
	}

	if len(patches) > 0 {
		s.patchLocal(patches)
	}

	s.logger.Info("category_color_propagated",
		zap.String("user_id", s.userID.String()),
		zap.String("category", logger.SanitizeCategoryName(name)),
		zap.String("color", string(color)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("failed", len(result.Failed)),
	)

	if len(errs) == 0 {
		return result, nil
	}

	s.scheduleRepair(ctx, name, color, result.Failed)
	s.Invalidate()
	return result, fmt.Errorf("%w: %w", ErrPartialPropagation, errors.Join(errs...))
}

func (s *Store) scheduleRepair(ctx context.Context, name string, color models.Color, failed []uuid.UUID) {
	if s.repairQueue == nil {
		return
	}
	job := queue.NewCategoryRepairJob(s.userID, name, color, failed)
	if err := s.repairQueue.Enqueue(ctx, job); err != nil {
		s.logger.Warn("failed_to_enqueue_category_repair_job",
			zap.String("user_id", s.userID.String()),
			zap.String("category", logger.SanitizeCategoryName(name)),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("category_repair_job_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", s.userID.String()),
		zap.Int("todo_count", len(failed)),
	)
}

// ResolveCategories runs the entered categories through a Draft against the
// current registry and recolors, store-wide, every name the draft matched
// locally or on another todo. It returns the categories to save on the todo.
func (s *Store) ResolveCategories(ctx context.Context, entered []models.Category) ([]models.Category, error) {
	draft := categories.NewDraft(nil, s.Registry())

	var propagate []models.Category
	for _, c := range entered {
		outcome, err := draft.Add(c.Name, c.Color)
		if err != nil {
			return nil, err
		}
		if outcome.NeedsPropagation() {
			propagate = append(propagate, models.Category{Name: strings.TrimSpace(c.Name), Color: c.Color.Normalize()})
		}
	}

	for _, c := range propagate {
		if _, err := s.UpdateCategoryColor(ctx, c.Name, c.Color); err != nil {
			return nil, err
		}
	}
	return draft.Categories(), nil
}
