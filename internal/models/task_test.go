package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskValidation_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
		errMsg  string
	}{
		{
			name:    "empty text should fail",
			task:    Task{Text: "", Priority: PriorityMedium},
			wantErr: true,
			errMsg:  "text is required",
		},
		{
			name:    "whitespace text should fail",
			task:    Task{Text: "   ", Priority: PriorityMedium},
			wantErr: true,
			errMsg:  "text is required",
		},
		{
			name:    "valid task should pass",
			task:    Task{Text: "Buy milk", Priority: PriorityMedium},
			wantErr: false,
		},
		{
			name:    "bad due date should fail",
			task:    Task{Text: "Buy milk", Priority: PriorityMedium, DueDate: "tomorrow"},
			wantErr: true,
			errMsg:  `due date must be YYYY-MM-DD, got "tomorrow"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, err.Error())
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTaskValidation_PriorityValues(t *testing.T) {
	tests := []struct {
		priority Priority
		wantErr  bool
	}{
		{PriorityHigh, false},
		{PriorityMedium, false},
		{PriorityLow, false},
		{"", true},
		{"urgent", true},
		{"high", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.priority), func(t *testing.T) {
			task := Task{Text: "Test", Priority: tt.priority}
			err := task.Validate()
			if tt.wantErr {
				assert.EqualError(t, err, "priority must be 'Low', 'Medium', or 'High'")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"", PriorityMedium, false},
		{"low", PriorityLow, false},
		{"MEDIUM", PriorityMedium, false},
		{" High ", PriorityHigh, false},
		{"urgent", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePriority(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDueDate(t *testing.T) {
	got, err := ParseDueDate(" 2026-03-01 ")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", got)

	got, err = ParseDueDate("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseDueDate("2026-13-01")
	assert.Error(t, err)
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2026, 5, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		task     Task
		expected bool
	}{
		{
			name:     "past due date and not completed is overdue",
			task:     Task{DueDate: "2026-05-09"},
			expected: true,
		},
		{
			name:     "past due date but completed is not overdue",
			task:     Task{DueDate: "2026-05-09", Completed: true},
			expected: false,
		},
		{
			name:     "due today is not overdue",
			task:     Task{DueDate: "2026-05-10"},
			expected: false,
		},
		{
			name:     "future due date is not overdue",
			task:     Task{DueDate: "2026-05-11"},
			expected: false,
		},
		{
			name:     "no due date is not overdue",
			task:     Task{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.task.IsOverdue(now))
		})
	}
}

func TestPriority_Rank(t *testing.T) {
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Greater(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Equal(t, 0, Priority("unknown").Rank())
}

func TestTask_JSONShape(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	task := Task{
		ID:        "abc",
		Text:      "Buy milk",
		Priority:  PriorityHigh,
		Category:  "Shopping",
		CreatedAt: created,
	}

	data, err := json.Marshal(task)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "abc",
		"text": "Buy milk",
		"completed": false,
		"priority": "High",
		"category": "Shopping",
		"createdAt": "2026-01-02T03:04:05.006Z"
	}`, string(data))
}

func TestTask_Clone(t *testing.T) {
	at := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	task := Task{ID: "a", CompletedAt: &at}

	clone := task.Clone()
	*clone.CompletedAt = clone.CompletedAt.Add(time.Hour)

	assert.Equal(t, at, *task.CompletedAt)
}
