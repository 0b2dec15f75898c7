package model

import "testing"

func TestSortCompletedLast(t *testing.T) {
	tasks := []Task{
		{ID: 5, Title: "e", IsCompleted: true},
		{ID: 4, Title: "d", IsCompleted: false},
		{ID: 3, Title: "c", IsCompleted: true},
		{ID: 2, Title: "b", IsCompleted: false},
		{ID: 1, Title: "a", IsCompleted: true},
	}

	SortCompletedLast(tasks)

	wantIDs := []int64{4, 2, 5, 3, 1}
	for i, want := range wantIDs {
		if tasks[i].ID != want {
			t.Fatalf("position %d = #%d, want #%d (sort must be stable within each group)", i, tasks[i].ID, want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"first-name-wins", User{Username: "alice", FirstName: "Alice"}, "Alice"},
		{"username-fallback", User{Username: "alice"}, "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
