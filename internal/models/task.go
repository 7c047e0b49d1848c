package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for due dates.
const DateLayout = "2006-01-02"

// DefaultCategory is assigned to tasks created without a category.
const DefaultCategory = "Personal"

// SuggestedCategories are offered to users when picking a category.
// Tasks are not restricted to this set.
var SuggestedCategories = []string{"Personal", "Work", "Shopping", "Health", "Education", "Other"}

// Priority is the importance of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank returns a numeric value for sorting by priority.
// Higher numbers indicate higher priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority parses a priority name case-insensitively.
// An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	}
	return "", fmt.Errorf("priority must be 'Low', 'Medium', or 'High', got %q", s)
}

// ParseDueDate validates a due date in YYYY-MM-DD format.
// An empty string is a valid absent due date.
func ParseDueDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return "", fmt.Errorf("due date must be YYYY-MM-DD, got %q", s)
	}
	return s, nil
}

// Task represents a single to-do item.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Completed   bool       `json:"completed"`
	Priority    Priority   `json:"priority"`
	DueDate     string     `json:"dueDate,omitempty"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Validate checks that the task has valid field values.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Text) == "" {
		return errors.New("text is required")
	}

	if !t.Priority.Valid() {
		return errors.New("priority must be 'Low', 'Medium', or 'High'")
	}

	if _, err := ParseDueDate(t.DueDate); err != nil {
		return err
	}

	return nil
}

// IsOverdue returns true if the task has a due date before the day of now and
// is not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Completed || t.DueDate == "" {
		return false
	}
	due, err := time.Parse(DateLayout, t.DueDate)
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return due.Before(today)
}

// Clone returns a copy of the task that shares no pointers with t.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}
