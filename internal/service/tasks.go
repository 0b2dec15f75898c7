package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/taskdeck/cli/internal/model"
)

var ErrEmptyTitle = errors.New("title must not be empty")

// TasksAPI is the slice of the API client the synchronizer needs.
type TasksAPI interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
}

// Outcome tags how a mutation was reconciled with the server.
type Outcome int

const (
	// OutcomeConfirmed: the server accepted the mutation and the local
	// collection reflects the server's record.
	OutcomeConfirmed Outcome = iota
	// OutcomeReverted: the mutation failed and the pre-attempt snapshot
	// was restored verbatim.
	OutcomeReverted
	// OutcomeResynced: the mutation failed and the optimistic guess was
	// discarded by a full refetch.
	OutcomeResynced
	// OutcomeUnchanged: the mutation failed before any local change.
	OutcomeUnchanged
)

// MutationResult reports the reconciliation step of a single mutation.
type MutationResult struct {
	Outcome Outcome
	Task    *model.Task
}

// TaskService owns the local copy of the currently displayed task collection
// and the active filter/search state. The local collection is a view of
// server state, never the source of truth.
//
// Mutations are serialized per collection: opMu is held across the local
// patch, the network call, and reconciliation, so a failure-triggered refetch
// can never overwrite an unrelated in-flight mutation's insert. The stateMu
// lock guards only the snapshot readers use, so rendering never waits on the
// network.
type TaskService struct {
	api TasksAPI

	opMu sync.Mutex

	stateMu sync.Mutex
	tasks   []model.Task
	filter  model.Filter

	debounce *debouncer

	// OnRefresh, when set, observes every debounce-triggered refetch.
	// Used by the interactive view; one-shot commands leave it nil.
	OnRefresh func(tasks []model.Task, err error)
}

func NewTaskService(api TasksAPI, searchDebounce time.Duration) *TaskService {
	if searchDebounce == 0 {
		searchDebounce = 300 * time.Millisecond
	}
	return &TaskService{
		api:      api,
		filter:   model.Filter{Completion: model.CompletionAll},
		debounce: newDebouncer(searchDebounce),
	}
}

// Tasks returns a copy of the current collection in server order.
func (s *TaskService) Tasks() []model.Task {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *TaskService) Filter() model.Filter {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.filter
}

// Refresh replaces the local collection wholesale with the server's response
// for the current filter scope. On failure the collection is cleared rather
// than left stale.
func (s *TaskService) Refresh(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *TaskService) refreshLocked(ctx context.Context) error {
	var resp model.TaskListResponse
	if err := s.api.Get(ctx, listPath(s.Filter()), &resp); err != nil {
		s.replace(nil)
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	s.replace(resp.Results)
	return nil
}

// Create sends first and inserts only the server's confirmed record, so a
// rejected create leaves no phantom row to clean up. The new record is
// prepended, matching the backend's newest-first ordering.
func (s *TaskService) Create(ctx context.Context, title, description string) (MutationResult, error) {
	if title == "" {
		return MutationResult{Outcome: OutcomeUnchanged}, ErrEmptyTitle
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	var created model.Task
	req := model.CreateTaskRequest{Title: title, Description: description}
	if err := s.api.Post(ctx, "/api/todos/", req, &created); err != nil {
		return MutationResult{Outcome: OutcomeUnchanged}, fmt.Errorf("failed to create task: %w", err)
	}

	s.stateMu.Lock()
	s.tasks = append([]model.Task{created}, s.tasks...)
	s.stateMu.Unlock()

	return MutationResult{Outcome: OutcomeConfirmed, Task: &created}, nil
}

// Update follows the same confirm-first pattern as Create: nothing changes
// locally until the server returns the updated record.
func (s *TaskService) Update(ctx context.Context, id int64, title, description *string) (MutationResult, error) {
	if title != nil && *title == "" {
		return MutationResult{Outcome: OutcomeUnchanged}, ErrEmptyTitle
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	var updated model.Task
	req := model.UpdateTaskRequest{Title: title, Description: description}
	if err := s.api.Patch(ctx, taskPath(id), req, &updated); err != nil {
		return MutationResult{Outcome: OutcomeUnchanged}, fmt.Errorf("failed to update task: %w", err)
	}

	s.stateMu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i] = updated
			break
		}
	}
	s.stateMu.Unlock()

	return MutationResult{Outcome: OutcomeConfirmed, Task: &updated}, nil
}

// ToggleComplete flips the local flag before confirmation. There is no
// fine-grained revert: a failure discards the guess with a full refetch,
// since the toggle endpoint's response body is not relied upon.
func (s *TaskService) ToggleComplete(ctx context.Context, id int64) (MutationResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.stateMu.Lock()
	var flipped *model.Task
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].IsCompleted = !s.tasks[i].IsCompleted
			copied := s.tasks[i]
			flipped = &copied
			break
		}
	}
	s.stateMu.Unlock()

	if err := s.api.Post(ctx, taskPath(id)+"toggle_complete/", nil, nil); err != nil {
		refreshErr := s.refreshLocked(ctx)
		if refreshErr != nil {
			return MutationResult{Outcome: OutcomeResynced},
				fmt.Errorf("failed to toggle task: %w (resync also failed: %v)", err, refreshErr)
		}
		return MutationResult{Outcome: OutcomeResynced}, fmt.Errorf("failed to toggle task: %w", err)
	}

	return MutationResult{Outcome: OutcomeConfirmed, Task: flipped}, nil
}

// Delete removes the record optimistically, keeping the pre-delete snapshot.
// On failure the snapshot is restored verbatim so the visible list is exactly
// the pre-attempt state, not a refetch.
func (s *TaskService) Delete(ctx context.Context, id int64) (MutationResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.stateMu.Lock()
	snapshot := make([]model.Task, len(s.tasks))
	copy(snapshot, s.tasks)

	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.stateMu.Unlock()

	if err := s.api.Delete(ctx, taskPath(id)); err != nil {
		s.replace(snapshot)
		return MutationResult{Outcome: OutcomeReverted}, fmt.Errorf("failed to delete task: %w", err)
	}

	return MutationResult{Outcome: OutcomeConfirmed}, nil
}

// SetCompletion narrows the list scope and schedules a debounced refetch.
func (s *TaskService) SetCompletion(c model.Completion) {
	s.stateMu.Lock()
	s.filter.Completion = c
	s.stateMu.Unlock()
	s.scheduleRefresh()
}

// SetSearch updates the search term and schedules a debounced refetch. Rapid
// successive calls collapse into one request for the final term.
func (s *TaskService) SetSearch(term string) {
	s.stateMu.Lock()
	s.filter.Search = term
	s.stateMu.Unlock()
	s.scheduleRefresh()
}

// Flush forces a pending debounced refetch to run now.
func (s *TaskService) Flush() {
	s.debounce.Flush()
}

// Close cancels any pending refetch.
func (s *TaskService) Close() {
	s.debounce.Stop()
}

func (s *TaskService) scheduleRefresh() {
	s.debounce.Schedule(func() {
		err := s.Refresh(context.Background())
		if s.OnRefresh != nil {
			s.OnRefresh(s.Tasks(), err)
		}
	})
}

func (s *TaskService) replace(tasks []model.Task) {
	s.stateMu.Lock()
	s.tasks = tasks
	s.stateMu.Unlock()
}

func listPath(f model.Filter) string {
	q := url.Values{}
	switch f.Completion {
	case model.CompletionPending:
		q.Set("is_completed", "false")
	case model.CompletionCompleted:
		q.Set("is_completed", "true")
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if len(q) == 0 {
		return "/api/todos/"
	}
	return "/api/todos/?" + q.Encode()
}

func taskPath(id int64) string {
	return "/api/todos/" + strconv.FormatInt(id, 10) + "/"
}
