package model

import (
	"sort"
	"time"
)

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	IsCompleted bool      `json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TaskListResponse struct {
	Results []Task `json:"results"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// UpdateTaskRequest carries a partial update; nil fields are omitted from the
// PATCH body and left untouched by the backend.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Completion selects which slice of the collection the server should return.
type Completion string

const (
	CompletionAll       Completion = "all"
	CompletionPending   Completion = "pending"
	CompletionCompleted Completion = "completed"
)

// Filter is the locally owned list scope. Changes trigger a server-side
// refetch; nothing here filters the collection client-side.
type Filter struct {
	Completion Completion
	Search     string
}

// SortCompletedLast stably moves completed tasks to the end, preserving the
// relative order within each group. Legacy rendering helper for the
// unfiltered list view; the synchronizer itself never reorders.
func SortCompletedLast(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return !tasks[i].IsCompleted && tasks[j].IsCompleted
	})
}
