package todo

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// stepClock returns a clock that advances by step on every call.
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now
		now = now.Add(step)
		return t
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var epoch = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func mustAdd(t *testing.T, s *Store, text string, p Priority) Task {
	t.Helper()
	task, err := s.Add(text, p, nil)
	if err != nil {
		t.Fatalf("Add(%q) failed: %v", text, err)
	}
	return task
}

func TestBuyMilkScenario(t *testing.T) {
	s := NewStore(WithClock(stepClock(epoch, time.Second)))

	task := mustAdd(t, s, "Buy milk", PriorityLow)
	tasks := s.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("tasks: got %d, want 1", len(tasks))
	}
	if tasks[0].Completed || tasks[0].Priority != PriorityLow || tasks[0].DueDate != nil {
		t.Errorf("unexpected task after add: %+v", tasks[0])
	}

	toggled, err := s.ToggleComplete(task.ID)
	if err != nil {
		t.Fatalf("ToggleComplete failed: %v", err)
	}
	if !toggled.Completed {
		t.Error("expected completed=true after toggle")
	}

	if _, err := s.SoftDelete(task.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	snap := s.Snapshot()
	if len(snap.Tasks) != 0 || len(snap.DeletedTasks) != 1 {
		t.Fatalf("after delete: got %d/%d, want 0/1", len(snap.Tasks), len(snap.DeletedTasks))
	}
	if snap.DeletedTasks[0].DeletedAt == nil {
		t.Error("expected deletedAt to be set")
	}

	if _, err := s.Restore(task.ID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	snap = s.Snapshot()
	if len(snap.Tasks) != 1 || len(snap.DeletedTasks) != 0 {
		t.Fatalf("after restore: got %d/%d, want 1/0", len(snap.Tasks), len(snap.DeletedTasks))
	}
	if snap.Tasks[0].DeletedAt != nil {
		t.Error("expected deletedAt to be cleared")
	}
}

func TestAddAssignsUniqueIDs(t *testing.T) {
	now := epoch
	s := NewStore(WithClock(fixedClock(now)))

	seen := map[int64]bool{}
	for i := 0; i < 50; i++ {
		task := mustAdd(t, s, "task", PriorityNone)
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
		if task.CreatedAt.After(now) {
			t.Errorf("createdAt %v after now %v", task.CreatedAt, now)
		}
	}
	if first := s.Tasks()[0].ID; first != now.UnixMilli() {
		t.Errorf("first id: got %d, want %d", first, now.UnixMilli())
	}
}

func TestAddIDSkipsDeletedIDs(t *testing.T) {
	s := NewStore(WithClock(fixedClock(epoch)))
	s.Load(State{DeletedTasks: []Task{{ID: epoch.UnixMilli() + 10, Text: "old", CreatedAt: epoch}}})

	task := mustAdd(t, s, "new", PriorityNone)
	if task.ID != epoch.UnixMilli()+11 {
		t.Errorf("got id %d, want %d", task.ID, epoch.UnixMilli()+11)
	}
}

func TestAddValidation(t *testing.T) {
	s := NewStore()

	tests := []struct {
		name     string
		text     string
		priority Priority
		want     error
	}{
		{"empty text", "", PriorityNone, ErrEmptyText},
		{"whitespace text", "   \t", PriorityLow, ErrEmptyText},
		{"bad priority", "ok", Priority("urgent"), ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Add(tt.text, tt.priority, nil)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
	if n := len(s.Tasks()); n != 0 {
		t.Errorf("rejected adds should not create tasks, got %d", n)
	}
}

func TestAddTrimsTextAndKeepsDue(t *testing.T) {
	s := NewStore()
	due := time.Date(2024, 6, 1, 17, 0, 0, 0, time.FixedZone("x", 3600))

	task, err := s.Add("  call mom  ", PriorityHigh, &due)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if task.Text != "call mom" {
		t.Errorf("text: got %q, want %q", task.Text, "call mom")
	}
	if task.DueDate == nil || !task.DueDate.Equal(due) {
		t.Errorf("due: got %v, want %v", task.DueDate, due)
	}
}

func TestUnknownIDReturnsNotFound(t *testing.T) {
	s := NewStore()
	task := mustAdd(t, s, "x", PriorityNone)
	const missing = int64(42)

	checks := map[string]error{
		"toggle": func() error { _, err := s.ToggleComplete(missing); return err }(),
		"update": func() error { _, err := s.Update(missing, Patch{}); return err }(),
		"delete": func() error { _, err := s.SoftDelete(missing); return err }(),
		"restore active id": func() error { _, err := s.Restore(task.ID); return err }(),
		"purge active id":   func() error { _, err := s.Purge(task.ID); return err }(),
		"start edit":        s.StartEdit(missing),
		"cancel edit":       s.CancelEdit(missing),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: got %v, want ErrNotFound", name, err)
		}
	}

	var nf *NotFoundError
	_, err := s.Restore(task.ID)
	if !errors.As(err, &nf) || nf.Collection != CollectionDeleted || nf.ID != task.ID {
		t.Errorf("unexpected NotFoundError: %v", err)
	}
}

func TestDeleteRestoreRoundTrip(t *testing.T) {
	s := NewStore(WithClock(stepClock(epoch, time.Minute)))
	due := epoch.Add(48 * time.Hour)
	task, err := s.Add("round trip", PriorityMedium, &due)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := s.ToggleComplete(task.ID); err != nil {
		t.Fatal(err)
	}
	before, _ := s.Get(task.ID)

	if _, err := s.SoftDelete(task.ID); err != nil {
		t.Fatal(err)
	}
	restored, err := s.Restore(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, restored) {
		t.Errorf("round trip changed task:\n got %+v\nwant %+v", restored, before)
	}
}

func TestRestoreAppendsToEnd(t *testing.T) {
	s := NewStore(WithClock(stepClock(epoch, time.Second)))
	a := mustAdd(t, s, "a", PriorityNone)
	mustAdd(t, s, "b", PriorityNone)
	mustAdd(t, s, "c", PriorityNone)

	if _, err := s.SoftDelete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Restore(a.ID); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, task := range s.Tasks() {
		got = append(got, task.Text)
	}
	if !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("got %v, want [b c a]", got)
	}
}

func TestPurgeIsIrreversible(t *testing.T) {
	s := NewStore()
	task := mustAdd(t, s, "gone", PriorityNone)
	if _, err := s.SoftDelete(task.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Purge(task.ID); err != nil {
		t.Fatalf("Purge failed: %v", err)
	}

	before := s.Snapshot()
	if _, err := s.Restore(task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("restore after purge: got %v, want ErrNotFound", err)
	}
	if after := s.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Error("restore after purge mutated the store")
	}
	if c := s.Counts(); c.Total != 0 || c.Deleted != 0 {
		t.Errorf("counts after purge: %+v", c)
	}
}

func TestClearCompleted(t *testing.T) {
	s := NewStore(WithClock(stepClock(epoch, time.Second)))
	var ids []int64
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		ids = append(ids, mustAdd(t, s, text, PriorityNone).ID)
	}
	for _, id := range []int64{ids[1], ids[3]} {
		if _, err := s.ToggleComplete(id); err != nil {
			t.Fatal(err)
		}
	}

	removed := s.ClearCompleted()
	if len(removed) != 2 {
		t.Fatalf("removed: got %d, want 2", len(removed))
	}
	snap := s.Snapshot()
	if len(snap.Tasks) != 3 || len(snap.DeletedTasks) != 2 {
		t.Fatalf("got %d active/%d deleted, want 3/2", len(snap.Tasks), len(snap.DeletedTasks))
	}
	for _, task := range snap.DeletedTasks {
		if task.DeletedAt == nil || !task.Completed {
			t.Errorf("unexpected deleted task %+v", task)
		}
	}
	if !snap.DeletedTasks[0].DeletedAt.Equal(*snap.DeletedTasks[1].DeletedAt) {
		t.Error("cleared tasks should share one deletedAt")
	}

	if again := s.ClearCompleted(); len(again) != 0 {
		t.Errorf("second clear removed %d tasks", len(again))
	}
}

func TestFilterHighPreservesOrder(t *testing.T) {
	s := NewStore(WithClock(stepClock(epoch, time.Second)))
	mustAdd(t, s, "h1", PriorityHigh)
	mustAdd(t, s, "l1", PriorityLow)
	mustAdd(t, s, "h2", PriorityHigh)
	mustAdd(t, s, "n1", PriorityNone)
	mustAdd(t, s, "h3", PriorityHigh)

	var got []string
	for _, task := range s.Filter(FilterHigh) {
		got = append(got, task.Text)
	}
	if !reflect.DeepEqual(got, []string{"h1", "h2", "h3"}) {
		t.Errorf("got %v, want [h1 h2 h3]", got)
	}
	if n := len(s.Filter(FilterNoPriority)); n != 1 {
		t.Errorf("none filter: got %d, want 1", n)
	}
	if n := len(s.Filter(FilterAll)); n != 5 {
		t.Errorf("all filter: got %d, want 5", n)
	}
}

func TestUpdate(t *testing.T) {
	s := NewStore()
	task := mustAdd(t, s, "draft", PriorityNone)
	text := func(v string) *string { return &v }
	prio := func(v Priority) *Priority { return &v }
	due := epoch.Add(time.Hour)

	changed, err := s.Update(task.ID, Patch{Text: text("draft"), Priority: prio(PriorityNone)})
	if err != nil || changed {
		t.Errorf("no-op update: changed=%v err=%v", changed, err)
	}

	changed, err = s.Update(task.ID, Patch{Text: text(" final "), DueDate: &due})
	if err != nil || !changed {
		t.Fatalf("update: changed=%v err=%v", changed, err)
	}
	got, _ := s.Get(task.ID)
	if got.Text != "final" || got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Errorf("unexpected task after update: %+v", got)
	}

	changed, err = s.Update(task.ID, Patch{DueDate: &due})
	if err != nil || changed {
		t.Errorf("same due date: changed=%v err=%v", changed, err)
	}

	changed, err = s.Update(task.ID, Patch{ClearDueDate: true, DueDate: &due})
	if err != nil || !changed {
		t.Errorf("clear due date: changed=%v err=%v", changed, err)
	}
	if got, _ := s.Get(task.ID); got.DueDate != nil {
		t.Error("expected due date cleared")
	}

	_, err = s.Update(task.ID, Patch{Text: text("  "), Priority: prio(PriorityHigh)})
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("empty text: got %v, want ErrEmptyText", err)
	}
	if got, _ := s.Get(task.ID); got.Priority != PriorityNone {
		t.Error("rejected patch should not apply any field")
	}

	_, err = s.Update(task.ID, Patch{Priority: prio("urgent")})
	if !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("bad priority: got %v, want ErrInvalidPriority", err)
	}
}

func TestEditMode(t *testing.T) {
	s := NewStore(WithClock(stepClock(epoch, time.Second)))
	a := mustAdd(t, s, "a", PriorityNone)
	b := mustAdd(t, s, "b", PriorityNone)

	if _, ok := s.Editing(); ok {
		t.Fatal("new store should not be editing")
	}
	if err := s.StartEdit(a.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.StartEdit(b.ID); err != nil {
		t.Fatal(err)
	}
	if id, ok := s.Editing(); !ok || id != b.ID {
		t.Errorf("editing: got %d/%v, want %d", id, ok, b.ID)
	}

	if err := s.CancelEdit(a.ID); err != nil {
		t.Fatal(err)
	}
	if id, _ := s.Editing(); id != b.ID {
		t.Error("cancelling another task should not end the current edit")
	}

	if _, err := s.Update(b.ID, Patch{}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Editing(); ok {
		t.Error("update should end edit mode")
	}

	if err := s.StartEdit(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SoftDelete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Editing(); ok {
		t.Error("deleting the edited task should end edit mode")
	}
}

func TestDeletedOrdering(t *testing.T) {
	at := func(min int) *time.Time {
		v := epoch.Add(time.Duration(min) * time.Minute)
		return &v
	}
	s := NewStore()
	s.Load(State{DeletedTasks: []Task{
		{ID: 1, Text: "oldest", DeletedAt: at(1)},
		{ID: 2, Text: "missing"},
		{ID: 3, Text: "newest", DeletedAt: at(10)},
		{ID: 4, Text: "tie-a", DeletedAt: at(5)},
		{ID: 5, Text: "tie-b", DeletedAt: at(5)},
	}})

	var got []int64
	for _, task := range s.Deleted() {
		got = append(got, task.ID)
	}
	if !reflect.DeepEqual(got, []int64{3, 4, 5, 1, 2}) {
		t.Errorf("got %v, want [3 4 5 1 2]", got)
	}
	// Stored order is untouched.
	if first := s.Snapshot().DeletedTasks[0].ID; first != 1 {
		t.Errorf("stored order changed, first id %d", first)
	}
}

func TestLoadRepairs(t *testing.T) {
	now := epoch
	s := NewStore(WithClock(fixedClock(now)))
	stray := epoch.Add(-time.Hour)

	report := s.Load(State{
		Tasks: []Task{
			{ID: 1, Text: "no created"},
			{ID: 2, Text: "stray deleted", CreatedAt: epoch, DeletedAt: &stray},
			{ID: 1, Text: "duplicate"},
		},
		DeletedTasks: []Task{
			{ID: 2, Text: "dup in deleted", CreatedAt: epoch, DeletedAt: &stray},
			{ID: 3, Text: "no deletedAt", CreatedAt: epoch},
		},
	})

	want := RepairReport{BackfilledCreatedAt: 1, ClearedDeletedAt: 1, StampedDeletedAt: 1, DroppedDuplicates: 2}
	if report != want {
		t.Errorf("report: got %+v, want %+v", report, want)
	}
	if !report.Changed() {
		t.Error("expected Changed() to be true")
	}

	snap := s.Snapshot()
	if len(snap.Tasks) != 2 || len(snap.DeletedTasks) != 1 {
		t.Fatalf("got %d/%d tasks, want 2/1", len(snap.Tasks), len(snap.DeletedTasks))
	}
	if !snap.Tasks[0].CreatedAt.Equal(now) {
		t.Errorf("createdAt not backfilled: %v", snap.Tasks[0].CreatedAt)
	}
	if snap.Tasks[1].DeletedAt != nil {
		t.Error("stray deletedAt not cleared")
	}
	if got := snap.DeletedTasks[0].DeletedAt; got == nil || !got.Equal(UnknownDeletedAt) {
		t.Errorf("deleted task without deletedAt: got %v, want %v", got, UnknownDeletedAt)
	}
	if snap.DeletedTasks[0].DeletionKnown() {
		t.Error("stamped deletion should not count as known")
	}

	clean := NewStore().Load(snap)
	if clean.Changed() {
		t.Errorf("reloading a repaired state should need no repair: %+v", clean)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := NewStore()
	due := epoch
	task, err := s.Add("x", PriorityNone, &due)
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	snap.Tasks[0].Text = "mutated"
	*snap.Tasks[0].DueDate = epoch.Add(time.Hour)

	got, _ := s.Get(task.ID)
	if got.Text != "x" || !got.DueDate.Equal(epoch) {
		t.Errorf("snapshot shares memory with store: %+v", got)
	}
}

func TestCounts(t *testing.T) {
	s := NewStore(WithClock(stepClock(epoch, time.Second)))
	a := mustAdd(t, s, "a", PriorityNone)
	b := mustAdd(t, s, "b", PriorityNone)
	mustAdd(t, s, "c", PriorityNone)
	if _, err := s.ToggleComplete(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SoftDelete(b.ID); err != nil {
		t.Fatal(err)
	}

	want := Counts{Total: 2, Pending: 1, Completed: 1, Deleted: 1}
	if got := s.Counts(); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got := s.CompletedCount(); got != 1 {
		t.Errorf("CompletedCount: got %d, want 1", got)
	}
}

func TestConcurrentAdds(t *testing.T) {
	s := NewStore(WithClock(fixedClock(epoch)))
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add("parallel", PriorityNone, nil)
		}()
	}
	wg.Wait()

	seen := map[int64]bool{}
	for _, task := range s.Tasks() {
		if seen[task.ID] {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = true
	}
	if len(seen) != 20 {
		t.Errorf("got %d tasks, want 20", len(seen))
	}
}
