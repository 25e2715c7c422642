package todos

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benvon/tasklist/internal/models"
	"github.com/benvon/tasklist/internal/pipeline"
	"github.com/benvon/tasklist/internal/queue"
	"github.com/benvon/tasklist/internal/services/categories"
	"github.com/google/uuid"
)

var errRemoteDown = errors.New("remote unavailable")

// fakeRemote is an in-memory Remote that can be told to fail
type fakeRemote struct {
	mu         sync.Mutex
	records    map[uuid.UUID]*models.Todo
	order      []uuid.UUID
	listErr    error
	insertErr  error
	deleteErr  error
	updateErr  error
	failUpdate map[uuid.UUID]bool
	updates    []models.TodoPatch
	calls      int
}

func newFakeRemote(seed ...*models.Todo) *fakeRemote {
	f := &fakeRemote{records: make(map[uuid.UUID]*models.Todo), failUpdate: make(map[uuid.UUID]bool)}
	for _, t := range seed {
		f.records[t.ID] = t.Clone()
		f.order = append(f.order, t.ID)
	}
	return f
}

func (f *fakeRemote) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Todo, 0, len(f.order))
	for _, id := range f.order {
		if t, ok := f.records[id]; ok {
			out = append(out, t.Clone())
		}
	}
	return out, nil
}

func (f *fakeRemote) Insert(ctx context.Context, userID uuid.UUID, todo *models.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records[todo.ID] = todo.Clone()
	f.order = append([]uuid.UUID{todo.ID}, f.order...)
	return nil
}

func (f *fakeRemote) Update(ctx context.Context, userID, id uuid.UUID, patch models.TodoPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.updateErr != nil || f.failUpdate[id] {
		return errRemoteDown
	}
	t, ok := f.records[id]
	if !ok {
		return errors.New("no rows")
	}
	f.records[id] = patch.Apply(t)
	f.updates = append(f.updates, patch)
	return nil
}

func (f *fakeRemote) Delete(ctx context.Context, userID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []*queue.Job
	err  error
}

func (q *fakeQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// tickingClock returns a clock that advances one second per call
func tickingClock() func() time.Time {
	var mu sync.Mutex
	now := t0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func seedTodo(text string, age time.Duration, cats ...models.Category) *models.Todo {
	created := t0.Add(-age)
	return &models.Todo{
		ID:         uuid.New(),
		Text:       text,
		Priority:   models.PriorityMedium,
		Categories: cats,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func loadedStore(t *testing.T, remote *fakeRemote, opts ...Option) *Store {
	t.Helper()
	opts = append([]Option{WithClock(tickingClock())}, opts...)
	s := NewStore(remote, uuid.New(), nil, opts...)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func TestStore_Load(t *testing.T) {
	t.Parallel()

	a := seedTodo("newer", time.Minute)
	b := seedTodo("older", time.Hour)
	s := loadedStore(t, newFakeRemote(a, b))

	if !s.Loaded() {
		t.Error("Expected store to be loaded")
	}
	got := s.Todos()
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("Expected remote order [newer older], got %+v", got)
	}
}

func TestStore_LoadFailure(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote(seedTodo("x", time.Minute))
	remote.listErr = errRemoteDown
	s := NewStore(remote, uuid.New(), nil)

	err := s.Load(context.Background())
	if !errors.Is(err, errRemoteDown) {
		t.Errorf("Expected remote error, got %v", err)
	}
	if !s.Loaded() {
		t.Error("Expected store to count as loaded after a failed load")
	}
	if len(s.Todos()) != 0 {
		t.Error("Expected empty list after failed load")
	}
}

func TestStore_NoSession(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	s := NewStore(remote, uuid.Nil, nil)

	if err := s.Load(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Load: expected ErrNoSession, got %v", err)
	}
	if _, err := s.Add(context.Background(), NewTodo{Text: "x"}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Add: expected ErrNoSession, got %v", err)
	}
	if _, err := s.Toggle(context.Background(), uuid.New()); !errors.Is(err, ErrNoSession) {
		t.Errorf("Toggle: expected ErrNoSession, got %v", err)
	}
	if remote.callCount() != 0 {
		t.Errorf("Expected no remote calls without a session, got %d", remote.callCount())
	}
}

func TestStore_AddPrepends(t *testing.T) {
	t.Parallel()

	existing := seedTodo("existing", time.Hour)
	fixed := uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	s := loadedStore(t, newFakeRemote(existing), WithIDGenerator(func() uuid.UUID { return fixed }))

	todo, err := s.Add(context.Background(), NewTodo{
		Text:        "  Buy milk  ",
		Description: "  ",
		Categories:  []models.Category{{Name: "Errands", Color: "#bfdbfe"}},
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if todo.ID != fixed {
		t.Errorf("Expected generated id %s, got %s", fixed, todo.ID)
	}
	if todo.Text != "Buy milk" || todo.Description != "" {
		t.Errorf("Expected trimmed text and empty description, got %q / %q", todo.Text, todo.Description)
	}
	if todo.Priority != models.PriorityMedium {
		t.Errorf("Expected default priority medium, got %s", todo.Priority)
	}
	if todo.Completed {
		t.Error("Expected new todo to be active")
	}
	if !todo.UpdatedAt.Equal(todo.CreatedAt) {
		t.Errorf("Expected updated_at == created_at on create, got %v / %v", todo.UpdatedAt, todo.CreatedAt)
	}

	list := s.Todos()
	if len(list) != 2 || list[0].ID != fixed {
		t.Fatalf("Expected new todo first, got %+v", list)
	}
	assertMatchesCreatedSort(t, list)
}

func assertMatchesCreatedSort(t *testing.T, list []*models.Todo) {
	t.Helper()
	sorted := pipeline.Apply(list, pipeline.Query{Sort: models.SortCreated})
	for i := range list {
		if list[i].ID != sorted[i].ID {
			t.Errorf("Store order differs from created sort at %d", i)
		}
	}
}

func TestStore_AddFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     NewTodo
		insertErr error
		wantErr   error
	}{
		{"remote down", NewTodo{Text: "x"}, errRemoteDown, errRemoteDown},
		{"blank text", NewTodo{Text: "   "}, nil, ErrEmptyText},
		{"bad priority", NewTodo{Text: "x", Priority: "urgent"}, nil, models.ErrInvalidPriority},
		{"four categories", NewTodo{Text: "x", Categories: []models.Category{
			{Name: "a", Color: "#fecaca"}, {Name: "b", Color: "#fecaca"},
			{Name: "c", Color: "#fecaca"}, {Name: "d", Color: "#fecaca"},
		}}, nil, categories.ErrTooManyCategories},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			remote := newFakeRemote(seedTodo("existing", time.Hour))
			s := loadedStore(t, remote)
			remote.insertErr = tt.insertErr

			if _, err := s.Add(context.Background(), tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if len(s.Todos()) != 1 {
				t.Errorf("Expected list to be unchanged, got %d todos", len(s.Todos()))
			}
		})
	}
}

func TestStore_Toggle(t *testing.T) {
	t.Parallel()

	todo := seedTodo("x", time.Hour)
	remote := newFakeRemote(todo)
	s := loadedStore(t, remote)

	got, err := s.Toggle(context.Background(), todo.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if !got.Completed {
		t.Error("Expected todo to be completed")
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("Expected updated_at to move past created_at, got %v", got.UpdatedAt)
	}
	if local, _ := s.Get(todo.ID); !local.Completed {
		t.Error("Expected local copy to be completed")
	}

	remote.updateErr = errRemoteDown
	if _, err := s.Toggle(context.Background(), todo.ID); !errors.Is(err, errRemoteDown) {
		t.Errorf("Expected remote error, got %v", err)
	}
	if local, _ := s.Get(todo.ID); !local.Completed {
		t.Error("Expected failed toggle to leave the todo completed")
	}
}

func TestStore_UnknownIDChangesNothing(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote(seedTodo("x", time.Hour))
	s := loadedStore(t, remote)
	before := remote.callCount()
	missing := uuid.New()
	high := models.PriorityHigh

	if _, err := s.Toggle(context.Background(), missing); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("Toggle: expected ErrTodoNotFound, got %v", err)
	}
	if err := s.Delete(context.Background(), missing); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("Delete: expected ErrTodoNotFound, got %v", err)
	}
	if _, err := s.SetPriority(context.Background(), missing, high); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("SetPriority: expected ErrTodoNotFound, got %v", err)
	}
	if _, err := s.EditFields(context.Background(), missing, Edit{Text: "y"}); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("EditFields: expected ErrTodoNotFound, got %v", err)
	}
	if remote.callCount() != before {
		t.Error("Expected no remote writes for an unknown id")
	}
	if len(s.Todos()) != 1 {
		t.Error("Expected list to be unchanged")
	}
}

func TestStore_Delete(t *testing.T) {
	t.Parallel()

	a := seedTodo("a", time.Minute)
	b := seedTodo("b", time.Hour)
	remote := newFakeRemote(a, b)
	s := loadedStore(t, remote)

	remote.deleteErr = errRemoteDown
	if err := s.Delete(context.Background(), a.ID); !errors.Is(err, errRemoteDown) {
		t.Errorf("Expected remote error, got %v", err)
	}
	if len(s.Todos()) != 2 {
		t.Fatal("Expected failed delete to keep the todo")
	}

	remote.deleteErr = nil
	if err := s.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	list := s.Todos()
	if len(list) != 1 || list[0].ID != b.ID {
		t.Errorf("Expected only b to remain, got %+v", list)
	}
}

func TestStore_EditFields(t *testing.T) {
	t.Parallel()

	todo := seedTodo("old", time.Hour, models.Category{Name: "Work", Color: "#fecaca"})
	todo.Priority = models.PriorityHigh
	todo.Description = "keep me"
	remote := newFakeRemote(todo)
	s := loadedStore(t, remote)

	got, err := s.EditFields(context.Background(), todo.ID, Edit{Text: " new "})
	if err != nil {
		t.Fatalf("EditFields() error = %v", err)
	}
	if got.Text != "new" {
		t.Errorf("Expected text 'new', got %q", got.Text)
	}
	if got.Priority != models.PriorityHigh {
		t.Errorf("Expected omitted priority to stay high, got %s", got.Priority)
	}
	if got.Description != "keep me" || len(got.Categories) != 1 {
		t.Errorf("Expected omitted fields to be unchanged, got %+v", got)
	}

	empty := ""
	low := models.PriorityLow
	cats := []models.Category{}
	got, err = s.EditFields(context.Background(), todo.ID, Edit{Text: "new", Description: &empty, Priority: &low, Categories: &cats})
	if err != nil {
		t.Fatalf("EditFields() error = %v", err)
	}
	if got.Description != "" || got.Priority != models.PriorityLow || len(got.Categories) != 0 {
		t.Errorf("Expected supplied fields to be replaced, got %+v", got)
	}

	remote.mu.Lock()
	last := remote.records[todo.ID]
	remote.mu.Unlock()
	if last.Priority != models.PriorityLow || last.Description != "" {
		t.Errorf("Expected remote record to match local, got %+v", last)
	}

	if _, err := s.EditFields(context.Background(), todo.ID, Edit{Text: ""}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestStore_SetPriority(t *testing.T) {
	t.Parallel()

	todo := seedTodo("x", time.Hour)
	s := loadedStore(t, newFakeRemote(todo))

	got, err := s.SetPriority(context.Background(), todo.ID, models.PriorityHigh)
	if err != nil {
		t.Fatalf("SetPriority() error = %v", err)
	}
	if got.Priority != models.PriorityHigh {
		t.Errorf("Expected high, got %s", got.Priority)
	}
	if _, err := s.SetPriority(context.Background(), todo.ID, "urgent"); !errors.Is(err, models.ErrInvalidPriority) {
		t.Errorf("Expected ErrInvalidPriority, got %v", err)
	}
}

func TestStore_UpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	t.Parallel()

	// Created in the future relative to the store's clock
	todo := seedTodo("x", -time.Hour)
	s := loadedStore(t, newFakeRemote(todo))

	got, err := s.Toggle(context.Background(), todo.ID)
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Errorf("updated_at %v is before created_at %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestStore_UpdateCategoryColor(t *testing.T) {
	t.Parallel()

	a := seedTodo("a", time.Minute, models.Category{Name: "Work", Color: "#fecaca"}, models.Category{Name: "Home", Color: "#bbf7d0"})
	b := seedTodo("b", 2*time.Minute, models.Category{Name: "work", Color: "#fed7aa"})
	c := seedTodo("c", 3*time.Minute, models.Category{Name: "Errands", Color: "#fef3c7"}, models.Category{Name: "WORK", Color: "#d9f99d"})
	untouched := seedTodo("d", 4*time.Minute, models.Category{Name: "Errands", Color: "#fef3c7"})
	remote := newFakeRemote(a, b, c, untouched)
	s := loadedStore(t, remote)

	result, err := s.UpdateCategoryColor(context.Background(), "work", "#bfdbfe")
	if err != nil {
		t.Fatalf("UpdateCategoryColor() error = %v", err)
	}
	if !s.Loaded() {
		t.Error("Expected a full recolor to keep the store loaded")
	}
	if len(result.Updated) != 3 || len(result.Failed) != 0 {
		t.Errorf("Expected 3 updated, got %+v", result)
	}

	byID := make(map[uuid.UUID]*models.Todo)
	for _, td := range s.Todos() {
		byID[td.ID] = td
	}

	want := map[uuid.UUID][]models.Category{
		a.ID:         {{Name: "Work", Color: "#bfdbfe"}, {Name: "Home", Color: "#bbf7d0"}},
		b.ID:         {{Name: "work", Color: "#bfdbfe"}},
		c.ID:         {{Name: "Errands", Color: "#fef3c7"}, {Name: "WORK", Color: "#bfdbfe"}},
		untouched.ID: {{Name: "Errands", Color: "#fef3c7"}},
	}
	for id, cats := range want {
		got := byID[id].Categories
		if len(got) != len(cats) {
			t.Fatalf("Todo %s: expected %+v, got %+v", byID[id].Text, cats, got)
		}
		for i := range cats {
			if got[i] != cats[i] {
				t.Errorf("Todo %s category %d: expected %+v, got %+v", byID[id].Text, i, cats[i], got[i])
			}
		}
	}

	if !byID[untouched.ID].UpdatedAt.Equal(untouched.UpdatedAt) {
		t.Error("Expected todo without the category to keep its updated_at")
	}
	for _, id := range []uuid.UUID{a.ID, b.ID, c.ID} {
		if !byID[id].UpdatedAt.After(byID[id].CreatedAt) {
			t.Errorf("Expected recolored todo %s to be re-stamped", byID[id].Text)
		}
	}

	reg := s.Registry()
	if work, _ := reg.Lookup("Work"); work.Color != "#bfdbfe" {
		t.Errorf("Expected registry to report the new color, got %s", work.Color)
	}
}

func TestStore_UpdateCategoryColorPartialFailure(t *testing.T) {
	t.Parallel()

	a := seedTodo("a", time.Minute, models.Category{Name: "Work", Color: "#fecaca"})
	b := seedTodo("b", 2*time.Minute, models.Category{Name: "work", Color: "#fed7aa"})
	remote := newFakeRemote(a, b)
	q := &fakeQueue{}
	s := loadedStore(t, remote, WithRepairQueue(q))
	remote.failUpdate[b.ID] = true

	result, err := s.UpdateCategoryColor(context.Background(), "Work", "#bfdbfe")
	if !errors.Is(err, ErrPartialPropagation) || !errors.Is(err, errRemoteDown) {
		t.Fatalf("Expected partial propagation error wrapping the remote error, got %v", err)
	}
	if len(result.Updated) != 1 || result.Updated[0] != a.ID {
		t.Errorf("Expected only a to be updated, got %+v", result.Updated)
	}
	if len(result.Failed) != 1 || result.Failed[0] != b.ID {
		t.Errorf("Expected b to fail, got %+v", result.Failed)
	}

	gotA, _ := s.Get(a.ID)
	gotB, _ := s.Get(b.ID)
	if gotA.Categories[0].Color != "#bfdbfe" {
		t.Errorf("Expected a to be recolored locally, got %s", gotA.Categories[0].Color)
	}
	if gotB.Categories[0].Color != "#fed7aa" {
		t.Errorf("Expected b to keep its persisted color, got %s", gotB.Categories[0].Color)
	}
	if s.Loaded() {
		t.Error("Expected partial recolor to mark the store stale")
	}

	if len(q.jobs) != 1 {
		t.Fatalf("Expected one repair job, got %d", len(q.jobs))
	}
	repair, err := q.jobs[0].CategoryRepair()
	if err != nil {
		t.Fatalf("CategoryRepair() error = %v", err)
	}
	if repair.Category != "Work" || repair.Color != "#bfdbfe" || len(repair.TodoIDs) != 1 || repair.TodoIDs[0] != b.ID {
		t.Errorf("Unexpected repair payload %+v", repair)
	}
}

func TestStore_UpdateCategoryColorRejects(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote(seedTodo("a", time.Minute, models.Category{Name: "Work", Color: "#fecaca"}))
	s := loadedStore(t, remote)
	before := remote.callCount()

	if _, err := s.UpdateCategoryColor(context.Background(), "Work", "#123456"); !errors.Is(err, models.ErrInvalidColor) {
		t.Errorf("Expected ErrInvalidColor, got %v", err)
	}
	if _, err := s.UpdateCategoryColor(context.Background(), " ", "#bfdbfe"); !errors.Is(err, ErrEmptyCategoryName) {
		t.Errorf("Expected ErrEmptyCategoryName, got %v", err)
	}
	result, err := s.UpdateCategoryColor(context.Background(), "Garden", "#bfdbfe")
	if err != nil || len(result.Updated) != 0 {
		t.Errorf("Expected no-op for unused name, got %+v, %v", result, err)
	}
	if remote.callCount() != before {
		t.Error("Expected no remote writes")
	}
}

func TestStore_ResolveCategories(t *testing.T) {
	t.Parallel()

	other := seedTodo("other", time.Minute, models.Category{Name: "Work", Color: "#fecaca"})
	remote := newFakeRemote(other)
	s := loadedStore(t, remote)

	cats, err := s.ResolveCategories(context.Background(), []models.Category{
		{Name: "work", Color: "#bfdbfe"},
		{Name: "Garden", Color: "#bbf7d0"},
	})
	if err != nil {
		t.Fatalf("ResolveCategories() error = %v", err)
	}
	if len(cats) != 2 || cats[0].Color != "#bfdbfe" || cats[1].Name != "Garden" {
		t.Errorf("Unexpected categories %+v", cats)
	}

	got, _ := s.Get(other.ID)
	if got.Categories[0].Color != "#bfdbfe" {
		t.Errorf("Expected existing Work to be recolored, got %s", got.Categories[0].Color)
	}

	if _, err := s.ResolveCategories(context.Background(), []models.Category{
		{Name: "a", Color: "#fecaca"}, {Name: "b", Color: "#fecaca"},
		{Name: "c", Color: "#fecaca"}, {Name: "d", Color: "#fecaca"},
	}); !errors.Is(err, categories.ErrTooManyCategories) {
		t.Errorf("Expected ErrTooManyCategories, got %v", err)
	}
}

func TestStore_ViewCountsAndReset(t *testing.T) {
	t.Parallel()

	done := seedTodo("Ship release", time.Hour)
	done.Completed = true
	done.Priority = models.PriorityHigh
	milk := seedTodo("Buy milk", time.Minute)
	milk.Priority = models.PriorityLow
	s := loadedStore(t, newFakeRemote(milk, done))

	view := s.View(pipeline.Query{Filter: models.FilterActive, Sort: models.SortPriority})
	if len(view) != 1 || view[0].Text != "Buy milk" {
		t.Errorf("Unexpected view %+v", view)
	}
	if c := s.Counts(); c.Active != 1 || c.Completed != 1 || c.Total != 2 {
		t.Errorf("Unexpected counts %+v", c)
	}

	s.Reset()
	if s.Loaded() || len(s.Todos()) != 0 {
		t.Error("Expected reset store to be empty and not loaded")
	}
}

func TestStore_TodosReturnsCopies(t *testing.T) {
	t.Parallel()

	todo := seedTodo("x", time.Hour, models.Category{Name: "Work", Color: "#fecaca"})
	s := loadedStore(t, newFakeRemote(todo))

	list := s.Todos()
	list[0].Text = "mutated"
	list[0].Categories[0].Color = "#bfdbfe"

	got, _ := s.Get(todo.ID)
	if got.Text != "x" || got.Categories[0].Color != "#fecaca" {
		t.Error("Expected snapshot mutation not to leak into the store")
	}
}

func TestStore_ConcurrentMutations(t *testing.T) {
	t.Parallel()

	seed := make([]*models.Todo, 0, 20)
	for i := 0; i < 20; i++ {
		seed = append(seed, seedTodo("t", time.Duration(i)*time.Minute, models.Category{Name: "Work", Color: "#fecaca"}))
	}
	s := loadedStore(t, newFakeRemote(seed...))

	var wg sync.WaitGroup
	for _, td := range seed {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, _ = s.Toggle(context.Background(), id)
		}(td.ID)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.UpdateCategoryColor(context.Background(), "work", "#bfdbfe")
	}()
	wg.Wait()

	if len(s.Todos()) != len(seed) {
		t.Errorf("Expected %d todos, got %d", len(seed), len(s.Todos()))
	}
}
