package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Filter selects tasks by completion state.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter parses a filter name case-insensitively. Empty means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPending, FilterCompleted:
		return f, nil
	}
	return "", fmt.Errorf("filter must be 'all', 'pending', or 'completed', got %q", s)
}

// SortKey orders a task listing.
type SortKey string

const (
	SortNone     SortKey = "none"
	SortDueDate  SortKey = "dueDate"
	SortPriority SortKey = "priority"
	SortCategory SortKey = "category"
)

// ParseSortKey parses a sort key case-insensitively. Empty means SortNone.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SortNone, nil
	case "duedate", "due":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	case "category":
		return SortCategory, nil
	}
	return "", fmt.Errorf("sort must be 'dueDate', 'priority', or 'category', got %q", s)
}

// Query describes a derived view over a task collection.
type Query struct {
	Filter Filter
	Search string
	Sort   SortKey
}

// Match reports whether a task passes the filter and search terms.
func (q Query) Match(t Task) bool {
	switch q.Filter {
	case FilterPending:
		if t.Completed {
			return false
		}
	case FilterCompleted:
		if !t.Completed {
			return false
		}
	}

	search := strings.TrimSpace(q.Search)
	if search != "" && !strings.Contains(strings.ToLower(t.Text), strings.ToLower(search)) {
		return false
	}

	return true
}

// Apply returns the matching tasks in the requested order. The input slice is
// never modified.
func (q Query) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Match(t) {
			out = append(out, t.Clone())
		}
	}

	switch q.Sort {
	case SortDueDate:
		// Absent due dates compare as the empty string and sort first.
		slices.SortStableFunc(out, func(a, b Task) int {
			return strings.Compare(a.DueDate, b.DueDate)
		})
	case SortPriority:
		slices.SortStableFunc(out, func(a, b Task) int {
			return b.Priority.Rank() - a.Priority.Rank()
		})
	case SortCategory:
		slices.SortStableFunc(out, func(a, b Task) int {
			return strings.Compare(a.Category, b.Category)
		})
	}

	return out
}

// DueWithin returns the incomplete tasks due on or before the day that is days
// after now, overdue ones included, ordered by due date and then by priority.
func DueWithin(tasks []Task, now time.Time, days int) []Task {
	end := now.AddDate(0, 0, days).Format(DateLayout)

	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed || t.DueDate == "" || t.DueDate > end {
			continue
		}
		out = append(out, t.Clone())
	}

	slices.SortStableFunc(out, func(a, b Task) int {
		if c := strings.Compare(a.DueDate, b.DueDate); c != 0 {
			return c
		}
		return b.Priority.Rank() - a.Priority.Rank()
	})

	return out
}

// Summary holds counts over a task collection.
type Summary struct {
	Total        int `json:"total"`
	Completed    int `json:"completed"`
	Pending      int `json:"pending"`
	HighPriority int `json:"highPriority"`
	Overdue      int `json:"overdue"`
}

// Summarize counts tasks by state as of now.
func Summarize(tasks []Task, now time.Time) Summary {
	var s Summary
	for i := range tasks {
		t := &tasks[i]
		s.Total++
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		if t.Priority == PriorityHigh {
			s.HighPriority++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	return s
}
