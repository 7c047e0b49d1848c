// Package taskstore holds the authoritative task collection and keeps it
// synchronized with a key-value persistence provider.
package taskstore

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pockettasks/internal/models"
	"pockettasks/internal/store"
)

// DefaultKey is the storage key holding the serialized task collection.
const DefaultKey = "@tasks_storage_key"

// DefaultWriteTimeout bounds a single provider write.
const DefaultWriteTimeout = 5 * time.Second

// ErrEmptyText is returned by AddTask when the text is empty or whitespace.
var ErrEmptyText = errors.New("task text is required")

// Options configures a Store. Zero values select defaults.
type Options struct {
	Key          string
	WriteTimeout time.Duration
	Clock        Clock
	NewID        IDFunc
	Logger       *zerolog.Logger
}

// mutation rewrites the collection in place.
type mutation func(tasks []models.Task) []models.Task

// Store owns the task collection. It is safe for concurrent use.
//
// Mutations made before Initialize are applied to memory right away and
// replayed on top of the loaded collection once Initialize runs; nothing is
// written to the provider until the store is ready.
type Store struct {
	provider store.Provider
	key      string
	clock    Clock
	newID    IDFunc
	log      zerolog.Logger
	writer   *writer

	mu    sync.RWMutex
	tasks []models.Task
	ready bool
	early []mutation
}

// New creates a Store in the loading state. Call Initialize before relying on
// the collection, and Close when done.
func New(provider store.Provider, opts Options) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.NewID == nil {
		opts.NewID = NewID
	}

	logger := log.With().Str("cmp", "taskstore").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Store{
		provider: provider,
		key:      opts.Key,
		clock:    opts.Clock,
		newID:    opts.NewID,
		log:      logger,
		writer:   newWriter(provider, opts.Key, opts.WriteTimeout, logger),
		tasks:    []models.Task{},
	}
}

// Initialize loads the persisted collection and marks the store ready.
//
// A missing key leaves the collection empty. Read and decode failures are
// logged and treated as an empty collection. Mutations recorded before the
// first Initialize are replayed on the loaded data and the result is saved.
func (s *Store) Initialize(ctx context.Context) {
	// Let queued writes land so a reload observes them.
	if err := s.writer.flush(ctx); err != nil && !errors.Is(err, errWriterClosed) {
		s.log.Warn().Err(err).Msg("flush before load failed")
	}

	loaded := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	replay := s.early
	s.early = nil
	for _, m := range replay {
		loaded = m(loaded)
	}

	s.tasks = loaded
	s.ready = true

	s.log.Info().Int("tasks", len(loaded)).Int("replayed", len(replay)).Msg("tasks loaded")

	if len(replay) > 0 {
		s.persistLocked()
	}
}

func (s *Store) load(ctx context.Context) []models.Task {
	raw, ok, err := s.provider.Get(ctx, s.key)
	if err != nil {
		s.log.Error().Err(err).Str("key", s.key).Msg("error loading tasks")
		return []models.Task{}
	}
	if !ok || raw == "" {
		return []models.Task{}
	}

	tasks, err := Decode(raw)
	if err != nil {
		s.log.Error().Err(err).Str("key", s.key).Msg("error loading tasks")
		return []models.Task{}
	}

	return tasks
}

// Ready reports whether Initialize has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Tasks returns a copy of the collection in insertion order.
func (s *Store) Tasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := indexOf(s.tasks, id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// Query returns the filtered and sorted view described by q.
func (s *Store) Query(q models.Query) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return q.Apply(s.tasks)
}

// Summary counts tasks by state.
func (s *Store) Summary() models.Summary {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Summarize(s.tasks, now)
}

// AddTask appends a new incomplete task. Empty priority defaults to Medium and
// empty category to models.DefaultCategory.
func (s *Store) AddTask(text string, priority models.Priority, dueDate, category string) (models.Task, error) {
	if strings.TrimSpace(text) == "" {
		return models.Task{}, ErrEmptyText
	}
	if priority == "" {
		priority = models.PriorityMedium
	}
	if category == "" {
		category = models.DefaultCategory
	}

	task := models.Task{
		ID:        s.newID(),
		Text:      text,
		Priority:  priority,
		DueDate:   dueDate,
		Category:  category,
		CreatedAt: s.clock.Now(),
	}

	s.apply(func(tasks []models.Task) []models.Task {
		if indexOf(tasks, task.ID) >= 0 {
			return tasks
		}
		return append(tasks, task)
	})

	return task, nil
}

// DeleteTask removes the task with the given id and reports whether it existed.
func (s *Store) DeleteTask(id string) bool {
	var found bool
	s.apply(func(tasks []models.Task) []models.Task {
		n := len(tasks)
		tasks = slices.DeleteFunc(tasks, func(t models.Task) bool { return t.ID == id })
		found = len(tasks) != n
		return tasks
	})
	return found
}

// ToggleTaskComplete flips the completed flag. CompletedAt is set when the
// task becomes complete and cleared when it is reopened.
func (s *Store) ToggleTaskComplete(id string) (models.Task, bool) {
	now := s.clock.Now()

	var (
		updated models.Task
		found   bool
	)
	s.apply(func(tasks []models.Task) []models.Task {
		i := indexOf(tasks, id)
		if i < 0 {
			return tasks
		}
		t := &tasks[i]
		t.Completed = !t.Completed
		if t.Completed {
			at := now
			t.CompletedAt = &at
		} else {
			t.CompletedAt = nil
		}
		updated, found = t.Clone(), true
		return tasks
	})
	return updated, found
}

// UpdateTask replaces the text of a task. The text is not validated.
func (s *Store) UpdateTask(id, text string) bool {
	return s.update(id, func(t *models.Task) { t.Text = text })
}

// UpdateTaskCategory replaces the category of a task.
func (s *Store) UpdateTaskCategory(id, category string) bool {
	return s.update(id, func(t *models.Task) { t.Category = category })
}

// UpdateTaskPriority replaces the priority of a task.
func (s *Store) UpdateTaskPriority(id string, priority models.Priority) bool {
	return s.update(id, func(t *models.Task) { t.Priority = priority })
}

// UpdateTaskDueDate replaces the due date of a task. An empty dueDate clears it.
func (s *Store) UpdateTaskDueDate(id, dueDate string) bool {
	return s.update(id, func(t *models.Task) { t.DueDate = dueDate })
}

// ClearCompleted removes every completed task and returns how many were removed.
func (s *Store) ClearCompleted() int {
	var removed int
	s.apply(func(tasks []models.Task) []models.Task {
		n := len(tasks)
		tasks = slices.DeleteFunc(tasks, func(t models.Task) bool { return t.Completed })
		removed = n - len(tasks)
		return tasks
	})
	return removed
}

// Flush waits for the latest collection to reach the provider and returns the
// error of the most recent write, if any.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close writes any pending snapshot and stops the writer. It does not close
// the provider.
func (s *Store) Close() {
	s.writer.close()
}

func (s *Store) update(id string, fn func(t *models.Task)) bool {
	var found bool
	s.apply(func(tasks []models.Task) []models.Task {
		if i := indexOf(tasks, id); i >= 0 {
			fn(&tasks[i])
			found = true
		}
		return tasks
	})
	return found
}

// apply runs m against the collection and persists the result. Before the
// store is ready m is also recorded for replay by Initialize.
func (s *Store) apply(m mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = m(s.tasks)

	if !s.ready {
		s.early = append(s.early, m)
		return
	}

	s.persistLocked()
}

func (s *Store) persistLocked() {
	data, err := Encode(s.tasks)
	if err != nil {
		s.log.Error().Err(err).Msg("error encoding tasks")
		return
	}
	s.writer.submit(data)
}

// Encode serializes a task collection as a JSON array.
func Encode(tasks []models.Task) (string, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses a JSON array produced by Encode. A JSON null decodes to an
// empty collection.
func Decode(raw string) ([]models.Task, error) {
	var tasks []models.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func indexOf(tasks []models.Task, id string) int {
	return slices.IndexFunc(tasks, func(t models.Task) bool { return t.ID == id })
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
