package taskstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pockettasks/internal/models"
	"pockettasks/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func sequentialIDs() IDFunc {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

// fakeProvider wraps a MemoryProvider with injectable failures.
type fakeProvider struct {
	*store.MemoryProvider

	mu     sync.Mutex
	getErr error
	setErr error
	sets   []string
	delay  time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{MemoryProvider: store.NewMemoryProvider()}
}

func (p *fakeProvider) Get(ctx context.Context, key string) (string, bool, error) {
	p.mu.Lock()
	err := p.getErr
	p.mu.Unlock()
	if err != nil {
		return "", false, err
	}
	return p.MemoryProvider.Get(ctx, key)
}

func (p *fakeProvider) Set(ctx context.Context, key, value string) error {
	p.mu.Lock()
	err, delay := p.setErr, p.delay
	p.sets = append(p.sets, value)
	p.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return err
	}
	return p.MemoryProvider.Set(ctx, key, value)
}

func (p *fakeProvider) setCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sets)
}

func (p *fakeProvider) failSets(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setErr = err
}

func (p *fakeProvider) persisted(t *testing.T) []models.Task {
	t.Helper()
	raw, ok, err := p.MemoryProvider.Get(context.Background(), DefaultKey)
	require.NoError(t, err)
	require.True(t, ok, "nothing persisted")
	tasks, err := Decode(raw)
	require.NoError(t, err)
	return tasks
}

func newTestStore(t *testing.T, p store.Provider) *Store {
	t.Helper()
	logger := zerolog.Nop()
	s := New(p, Options{
		Clock:  &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		NewID:  sequentialIDs(),
		Logger: &logger,
	})
	t.Cleanup(s.Close)
	return s
}

func readyStore(t *testing.T) (*Store, *fakeProvider) {
	t.Helper()
	p := newFakeProvider()
	s := newTestStore(t, p)
	s.Initialize(context.Background())
	return s, p
}

func taskIDs(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestAddTask(t *testing.T) {
	s, p := readyStore(t)

	task, err := s.AddTask("Buy milk", models.PriorityHigh, "", "Shopping")
	require.NoError(t, err)

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, task, tasks[0])
	assert.False(t, tasks[0].Completed)
	assert.Equal(t, models.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, "Shopping", tasks[0].Category)
	assert.Empty(t, tasks[0].DueDate)
	assert.Nil(t, tasks[0].CompletedAt)
	assert.False(t, tasks[0].CreatedAt.IsZero())

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, tasks, p.persisted(t))
}

func TestAddTask_Defaults(t *testing.T) {
	s, _ := readyStore(t)

	task, err := s.AddTask("Stretch", "", "2026-02-01", "")
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, models.DefaultCategory, task.Category)
	assert.Equal(t, "2026-02-01", task.DueDate)
}

func TestAddTask_RejectsEmptyText(t *testing.T) {
	s, p := readyStore(t)

	for _, text := range []string{"", "   ", "\t\n"} {
		_, err := s.AddTask(text, models.PriorityLow, "", "")
		assert.ErrorIs(t, err, ErrEmptyText)
	}

	require.NoError(t, s.Flush(context.Background()))
	assert.Empty(t, s.Tasks())
	assert.Zero(t, p.setCount())
}

func TestAddTask_AppendsInOrder(t *testing.T) {
	s, _ := readyStore(t)

	for _, text := range []string{"a", "b", "c"} {
		_, err := s.AddTask(text, "", "", "")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"task-1", "task-2", "task-3"}, taskIDs(s.Tasks()))
}

func TestToggleTaskComplete_Twice(t *testing.T) {
	s, _ := readyStore(t)
	task, _ := s.AddTask("Write report", "", "", "Work")

	done, ok := s.ToggleTaskComplete(task.ID)
	require.True(t, ok)
	assert.True(t, done.Completed)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.After(task.CreatedAt))

	reopened, ok := s.ToggleTaskComplete(task.ID)
	require.True(t, ok)
	assert.False(t, reopened.Completed)
	assert.Nil(t, reopened.CompletedAt)

	got, _ := s.Get(task.ID)
	assert.Equal(t, task, got)
}

func TestToggleTaskComplete_Missing(t *testing.T) {
	s, _ := readyStore(t)
	_, _ = s.AddTask("a", "", "", "")

	_, ok := s.ToggleTaskComplete("nope")
	assert.False(t, ok)
	assert.False(t, s.Tasks()[0].Completed)
}

func TestDeleteTask(t *testing.T) {
	s, _ := readyStore(t)
	a, _ := s.AddTask("a", "", "", "")
	b, _ := s.AddTask("b", "", "", "")
	c, _ := s.AddTask("c", "", "", "")

	assert.True(t, s.DeleteTask(b.ID))
	assert.Equal(t, []string{a.ID, c.ID}, taskIDs(s.Tasks()))
}

func TestDeleteTask_MissingLeavesCollectionUnchanged(t *testing.T) {
	s, _ := readyStore(t)
	_, _ = s.AddTask("a", models.PriorityLow, "", "")
	_, _ = s.AddTask("b", models.PriorityHigh, "2026-03-01", "Work")
	before := s.Tasks()

	assert.False(t, s.DeleteTask("missing"))
	assert.Equal(t, before, s.Tasks())
}

func TestUpdateOperations(t *testing.T) {
	s, _ := readyStore(t)
	task, _ := s.AddTask("Draft", models.PriorityLow, "2026-01-10", "Personal")

	assert.True(t, s.UpdateTask(task.ID, "Final"))
	assert.True(t, s.UpdateTaskCategory(task.ID, "Work"))
	assert.True(t, s.UpdateTaskPriority(task.ID, models.PriorityHigh))
	assert.True(t, s.UpdateTaskDueDate(task.ID, "2026-02-02"))

	got, ok := s.Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, "Final", got.Text)
	assert.Equal(t, "Work", got.Category)
	assert.Equal(t, models.PriorityHigh, got.Priority)
	assert.Equal(t, "2026-02-02", got.DueDate)
	assert.Equal(t, task.CreatedAt, got.CreatedAt)

	assert.True(t, s.UpdateTaskDueDate(task.ID, ""))
	got, _ = s.Get(task.ID)
	assert.Empty(t, got.DueDate)

	// No validation at this layer.
	assert.True(t, s.UpdateTask(task.ID, ""))

	assert.False(t, s.UpdateTask("missing", "x"))
	assert.False(t, s.UpdateTaskCategory("missing", "x"))
	assert.False(t, s.UpdateTaskPriority("missing", models.PriorityLow))
	assert.False(t, s.UpdateTaskDueDate("missing", ""))
}

func TestClearCompleted_PreservesOrder(t *testing.T) {
	s, p := readyStore(t)
	var all []models.Task
	for i := range 6 {
		task, _ := s.AddTask(fmt.Sprintf("t%d", i), "", "", "")
		all = append(all, task)
	}
	s.ToggleTaskComplete(all[1].ID)
	s.ToggleTaskComplete(all[2].ID)
	s.ToggleTaskComplete(all[4].ID)

	assert.Equal(t, 3, s.ClearCompleted())
	assert.Equal(t, []string{all[0].ID, all[3].ID, all[5].ID}, taskIDs(s.Tasks()))

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, s.Tasks(), p.persisted(t))
}

func TestMutationsPersistEvenWhenIDMissing(t *testing.T) {
	s, p := readyStore(t)

	s.DeleteTask("missing")
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, 1, p.setCount())
	assert.Empty(t, p.persisted(t))
}

func TestUniqueIDsAcrossOperations(t *testing.T) {
	p := newFakeProvider()
	logger := zerolog.Nop()
	s := New(p, Options{Logger: &logger})
	t.Cleanup(s.Close)
	s.Initialize(context.Background())

	for i := range 200 {
		task, err := s.AddTask(fmt.Sprintf("task %d", i), "", "", "")
		require.NoError(t, err)
		switch i % 5 {
		case 1:
			s.ToggleTaskComplete(task.ID)
		case 3:
			s.DeleteTask(task.ID)
		case 4:
			s.ClearCompleted()
		}
	}

	seen := make(map[string]bool)
	for _, task := range s.Tasks() {
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestAddTask_DuplicateIDNotAppended(t *testing.T) {
	p := newFakeProvider()
	logger := zerolog.Nop()
	s := New(p, Options{NewID: func() string { return "same" }, Logger: &logger})
	t.Cleanup(s.Close)
	s.Initialize(context.Background())

	_, _ = s.AddTask("a", "", "", "")
	_, _ = s.AddTask("b", "", "", "")

	tasks := s.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "a", tasks[0].Text)
}

func TestTasksReturnsCopy(t *testing.T) {
	s, _ := readyStore(t)
	task, _ := s.AddTask("a", "", "", "")
	s.ToggleTaskComplete(task.ID)

	tasks := s.Tasks()
	tasks[0].Text = "changed"
	*tasks[0].CompletedAt = time.Time{}

	got, _ := s.Get(task.ID)
	assert.Equal(t, "a", got.Text)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s, _ := readyStore(t)
	a, _ := s.AddTask("Buy milk", models.PriorityHigh, "", "Shopping")
	_, _ = s.AddTask("Gym", models.PriorityLow, "2026-04-01", "Health")
	s.ToggleTaskComplete(a.ID)

	original := s.Tasks()
	raw, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestEncode_EmptyCollection(t *testing.T) {
	raw, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	tasks, err := Decode("null")
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestQueryAndSummary(t *testing.T) {
	s, _ := readyStore(t)
	milk, _ := s.AddTask("Buy MILK", models.PriorityLow, "", "Shopping")
	_, _ = s.AddTask("Report", models.PriorityHigh, "", "Work")
	s.ToggleTaskComplete(milk.ID)

	got := s.Query(models.Query{Search: "milk"})
	assert.Equal(t, []string{milk.ID}, taskIDs(got))

	got = s.Query(models.Query{Sort: models.SortPriority})
	assert.Equal(t, "Report", got[0].Text)

	summary := s.Summary()
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.HighPriority)
}
