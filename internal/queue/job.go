package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/benvon/tasklist/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeCategoryRepair re-applies a category color to todos whose
	// remote write failed during propagation
	JobTypeCategoryRepair JobType = "category_repair"
)

const (
	metaCategory = "category"
	metaColor    = "color"
	metaTodoIDs  = "todo_ids"

	// repairWindow is how long a repair job stays eligible before GC drops it
	repairWindow = 24 * time.Hour
)

// ErrInvalidJobMetadata is returned when a job lacks the metadata its type needs
var ErrInvalidJobMetadata = errors.New("invalid job metadata")

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	TodoID     *uuid.UUID     `json:"todo_id,omitempty"`
	NotBefore  *time.Time     `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // nil = no expiration
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID, todoID *uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		TodoID:     todoID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: 3,
	}
}

// NewCategoryRepairJob creates a job that recolors category name on the given todos
func NewCategoryRepairJob(userID uuid.UUID, name string, color models.Color, todoIDs []uuid.UUID) *Job {
	job := NewJob(JobTypeCategoryRepair, userID, nil)
	ids := make([]string, len(todoIDs))
	for i, id := range todoIDs {
		ids[i] = id.String()
	}
	job.Metadata[metaCategory] = name
	job.Metadata[metaColor] = string(color)
	job.Metadata[metaTodoIDs] = ids

	notAfter := job.CreatedAt.Add(repairWindow)
	job.NotAfter = &notAfter
	return job
}

// CategoryRepair is the payload of a JobTypeCategoryRepair job
type CategoryRepair struct {
	Category string
	Color    models.Color
	TodoIDs  []uuid.UUID
	// RequestedAt is when the recolor was first attempted. Retries keep it.
	RequestedAt time.Time
}

// CategoryRepair decodes the job's repair payload. It accepts metadata as
// built by NewCategoryRepairJob or as decoded from JSON.
func (j *Job) CategoryRepair() (CategoryRepair, error) {
	var out CategoryRepair
	if j.Type != JobTypeCategoryRepair {
		return out, fmt.Errorf("%w: job type %s is not %s", ErrInvalidJobMetadata, j.Type, JobTypeCategoryRepair)
	}

	name, _ := j.Metadata[metaCategory].(string)
	color, _ := j.Metadata[metaColor].(string)
	if name == "" || color == "" {
		return out, fmt.Errorf("%w: category and color are required", ErrInvalidJobMetadata)
	}
	out.Category = name
	out.Color = models.Color(color)
	out.RequestedAt = j.CreatedAt

	var raw []string
	switch ids := j.Metadata[metaTodoIDs].(type) {
	case []string:
		raw = ids
	case []any:
		for _, v := range ids {
			s, ok := v.(string)
			if !ok {
				return out, fmt.Errorf("%w: todo id %v is not a string", ErrInvalidJobMetadata, v)
			}
			raw = append(raw, s)
		}
	case nil:
	default:
		return out, fmt.Errorf("%w: todo_ids has type %T", ErrInvalidJobMetadata, ids)
	}

	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrInvalidJobMetadata, err)
		}
		out.TodoIDs = append(out.TodoIDs, id)
	}
	return out, nil
}

// Due reports whether the job may run at now: past NotBefore and not expired
func (j *Job) Due(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.ExpiredAt(now)
}

// ExpiredAt reports whether NotAfter has passed at now
func (j *Job) ExpiredAt(now time.Time) bool {
	return j.NotAfter != nil && now.After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
