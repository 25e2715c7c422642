package telemetry

import (
	"context"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/services/todos"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/benvon/tasklist/internal/telemetry"

// TracedRemote wraps a todos.Remote and records a span for every call
type TracedRemote struct {
	next   todos.Remote
	tracer trace.Tracer
}

// NewTracedRemote wraps next. A nil provider uses the global one.
func NewTracedRemote(next todos.Remote, provider trace.TracerProvider) *TracedRemote {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &TracedRemote{next: next, tracer: provider.Tracer(tracerName)}
}

func (r *TracedRemote) start(ctx context.Context, op string, userID uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("tasklist.user_id", userID.String()))
	return r.tracer.Start(ctx, "todos.remote."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote call failed")
	}
	span.End()
}

// ListByUser implements todos.Remote
func (r *TracedRemote) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Todo, error) {
	ctx, span := r.start(ctx, "list", userID)
	list, err := r.next.ListByUser(ctx, userID)
	span.SetAttributes(attribute.Int("tasklist.todo_count", len(list)))
	finish(span, err)
	return list, err
}

// Insert implements todos.Remote
func (r *TracedRemote) Insert(ctx context.Context, userID uuid.UUID, todo *models.Todo) error {
	ctx, span := r.start(ctx, "insert", userID, attribute.String("tasklist.todo_id", todo.ID.String()))
	err := r.next.Insert(ctx, userID, todo)
	finish(span, err)
	return err
}

// Update implements todos.Remote
func (r *TracedRemote) Update(ctx context.Context, userID, id uuid.UUID, patch models.TodoPatch) error {
	ctx, span := r.start(ctx, "update", userID,
		attribute.String("tasklist.todo_id", id.String()),
		attribute.Bool("tasklist.patch.categories", patch.Categories != nil))
	err := r.next.Update(ctx, userID, id, patch)
	finish(span, err)
	return err
}

// Delete implements todos.Remote
func (r *TracedRemote) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ctx, span := r.start(ctx, "delete", userID, attribute.String("tasklist.todo_id", id.String()))
	err := r.next.Delete(ctx, userID, id)
	finish(span, err)
	return err
}
