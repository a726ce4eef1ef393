package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.clock = func() time.Time { return now }

	e1, err := s.Save(ctx, "first transcript text", "en", 2*time.Second, true)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if e1.ID == 0 {
		t.Error("Save returned zero ID")
	}
	if e1.Title != "first transcript text" {
		t.Errorf("Title = %q", e1.Title)
	}

	now = now.Add(time.Minute)
	if _, err := s.Save(ctx, "second transcript", "de", time.Second, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := s.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Text != "second transcript" {
		t.Errorf("newest first violated: %q", entries[0].Text)
	}
	if entries[1].Language != "en" || !entries[1].Online || entries[1].Duration != 2*time.Second {
		t.Errorf("entry fields lost: %+v", entries[1])
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"one two three four five six seven", "one two three four five"},
		{"  spaced   out   words  ", "spaced out words"},
		{"", "(empty)"},
		{"   ", "(empty)"},
	}
	for _, tt := range tests {
		if got := Title(tt.in); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSearch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Save(ctx, "meeting notes about budget", "en", time.Second, true)
	s.Save(ctx, "grocery list milk eggs", "en", time.Second, true)
	s.Save(ctx, "budget review follow up", "en", time.Second, false)

	got, err := s.Search(ctx, "budget", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}

	got, err = s.Search(ctx, "nothing matches this", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e, err := s.Save(ctx, "disposable", "en", time.Second, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, e.ID); err == nil {
		t.Error("deleting a missing entry should fail")
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("Count = %d, want 0", n)
	}
}

func TestDeleteAll(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Save(ctx, "entry", "en", time.Second, false)
	}
	if err := s.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 0 {
		t.Errorf("Count = %d after DeleteAll", n)
	}
}
