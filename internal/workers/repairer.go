package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/tasklist/internal/database"
	"github.com/benvon/tasklist/internal/logger"
	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/queue"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRetryBase is the first retry delay; each retry doubles it
const DefaultRetryBase = 30 * time.Second

// CategoryRepairer finishes category recolors that did not reach every todo
type CategoryRepairer struct {
	todoRepo  database.TodoRepositoryInterface
	jobQueue  queue.Enqueuer
	logger    *zap.Logger
	retryBase time.Duration
	now       func() time.Time
}

// NewCategoryRepairer creates a repairer. jobQueue is used to schedule
// retries and may be nil.
func NewCategoryRepairer(todoRepo database.TodoRepositoryInterface, jobQueue queue.Enqueuer, logger *zap.Logger) *CategoryRepairer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryRepairer{
		todoRepo:  todoRepo,
		jobQueue:  jobQueue,
		logger:    logger,
		retryBase: DefaultRetryBase,
		now:       time.Now,
	}
}

// ProcessJob repairs one job and acknowledges the message. Jobs that cannot
// be decoded or have run out of retries are dead-lettered.
func (r *CategoryRepairer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	if job.Type != queue.JobTypeCategoryRepair {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	repair, err := job.CategoryRepair()
	if err != nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("invalid repair job %s: %w", job.ID, err)
	}

	remaining, repairErr := r.Repair(ctx, job.UserID, repair)
	if errors.Is(repairErr, models.ErrInvalidColor) {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("invalid repair job %s: %w", job.ID, repairErr)
	}
	if len(remaining) == 0 {
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		r.logger.Info("category_repair_completed",
			zap.String("job_id", job.ID.String()),
			zap.String("user_id", job.UserID.String()),
			zap.String("category", logger.SanitizeCategoryName(repair.Category)),
		)
		return nil
	}

	return r.retry(ctx, msg, job, remaining, repairErr)
}

// retry acks msg and re-enqueues the unrepaired todos with a delay, or
// dead-letters msg when no retries are left
func (r *CategoryRepairer) retry(ctx context.Context, msg queue.MessageInterface, job *queue.Job, remaining []uuid.UUID, cause error) error {
	if !job.CanRetry() || r.jobQueue == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			r.logger.Warn("failed_to_nack_job", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("category repair gave up after %d retries: %w", job.RetryCount, cause)
	}

	ids := make([]any, len(remaining))
	for i, id := range remaining {
		ids[i] = id.String()
	}
	metadata := make(map[string]any, len(job.Metadata))
	for k, v := range job.Metadata {
		metadata[k] = v
	}
	metadata["todo_ids"] = ids

	notBefore := r.now().Add(r.retryBase << job.RetryCount)
	next := &queue.Job{
		ID:         job.ID,
		Type:       job.Type,
		UserID:     job.UserID,
		NotBefore:  &notBefore,
		NotAfter:   job.NotAfter,
		Metadata:   metadata,
		CreatedAt:  job.CreatedAt,
		RetryCount: job.RetryCount + 1,
		MaxRetries: job.MaxRetries,
	}

	if ackErr := msg.Ack(); ackErr != nil {
		r.logger.Warn("failed_to_ack_job_before_retry", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
	}
	if err := r.jobQueue.Enqueue(ctx, next); err != nil {
		return fmt.Errorf("failed to re-enqueue repair job: %w", err)
	}

	r.logger.Warn("category_repair_retry_scheduled",
		zap.String("job_id", job.ID.String()),
		zap.Int("remaining", len(remaining)),
		zap.Int("retry", next.RetryCount),
		zap.Time("not_before", notBefore),
		zap.Error(cause),
	)
	return nil
}

// Repair recolors the category on each listed todo. Todos that were deleted,
// no longer carry the category or were recolored again after the job was
// requested are skipped. It returns the todos that still need repairing.
func (r *CategoryRepairer) Repair(ctx context.Context, userID uuid.UUID, repair queue.CategoryRepair) ([]uuid.UUID, error) {
	color := repair.Color.Normalize()
	if !color.Valid() {
		return nil, models.ErrInvalidColor
	}

	superseded, err := r.superseded(ctx, userID, repair, color)
	if err != nil {
		return repair.TodoIDs, fmt.Errorf("failed to check for newer recolor: %w", err)
	}
	if superseded {
		r.logger.Info("category_repair_superseded",
			zap.String("user_id", userID.String()),
			zap.String("category", logger.SanitizeCategoryName(repair.Category)),
			zap.Time("requested_at", repair.RequestedAt),
		)
		return nil, nil
	}

	var remaining []uuid.UUID
	var errs []error
	for _, id := range repair.TodoIDs {
		if err := r.repairOne(ctx, userID, id, repair, color); err != nil {
			remaining = append(remaining, id)
			errs = append(errs, err)
		}
	}
	return remaining, errors.Join(errs...)
}

// superseded reports whether a todo outside the repair set, which took the
// job's color when the recolor ran, was changed to another color for the
// category after the job was requested.
func (r *CategoryRepairer) superseded(ctx context.Context, userID uuid.UUID, repair queue.CategoryRepair, color models.Color) (bool, error) {
	if repair.RequestedAt.IsZero() {
		return false, nil
	}
	todos, err := r.todoRepo.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	pending := make(map[uuid.UUID]bool, len(repair.TodoIDs))
	for _, id := range repair.TodoIDs {
		pending[id] = true
	}
	for _, t := range todos {
		if pending[t.ID] || !t.UpdatedAt.After(repair.RequestedAt) {
			continue
		}
		for _, c := range t.Categories {
			if c.SameName(repair.Category) && c.Color.Normalize() != color {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *CategoryRepairer) repairOne(ctx context.Context, userID, id uuid.UUID, repair queue.CategoryRepair, color models.Color) error {
	todo, err := r.todoRepo.GetForUser(ctx, userID, id)
	if errors.Is(err, database.ErrNotFound) {
		r.logger.Debug("category_repair_todo_gone", zap.String("todo_id", id.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("todo %s: %w", id, err)
	}
	if !repair.RequestedAt.IsZero() && todo.UpdatedAt.After(repair.RequestedAt) {
		r.logger.Debug("category_repair_todo_changed", zap.String("todo_id", id.String()))
		return nil
	}

	cats, matched := models.RecolorCategories(todo.Categories, repair.Category, color)
	if !matched {
		return nil
	}

	updatedAt := r.now()
	if updatedAt.Before(todo.CreatedAt) {
		updatedAt = todo.CreatedAt
	}
	err = r.todoRepo.Update(ctx, userID, id, models.TodoPatch{Categories: &cats, UpdatedAt: updatedAt})
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("todo %s: %w", id, err)
	}
	return nil
}
