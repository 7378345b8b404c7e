package index

import (
	"sync"
	"testing"
	"time"

	"github.com/caption-gallery/caption-gallery/internal/models"
)

func record(path, owner, caption string) *models.CaptionRecord {
	return &models.CaptionRecord{
		Path:        path,
		Owner:       owner,
		Predictions: []models.Prediction{{Caption: caption}},
		CreatedAt:   time.Now(),
	}
}

func TestInsertOverwrites(t *testing.T) {
	ix := New()
	ix.Insert(record("img/a.jpg", "s1", "first"))
	ix.Insert(record("img/a.jpg", "s1", "second"))

	if ix.Len() != 1 {
		t.Fatalf("expected 1 record, got %d", ix.Len())
	}
	got, ok := ix.Get("img/a.jpg", "s1")
	if !ok {
		t.Fatal("record not found")
	}
	if got.Predictions[0].Caption != "second" {
		t.Errorf("expected last write to win, got %q", got.Predictions[0].Caption)
	}
}

func TestRemoveMissingIsNoop(t *testing.T) {
	ix := New()
	ix.Remove("img/never-existed.jpg")
	if ix.Len() != 0 {
		t.Fatalf("expected empty index, got %d records", ix.Len())
	}
}

func TestVisibility(t *testing.T) {
	ix := New()
	ix.Insert(record("img/seed.jpg", "", "a tree"))
	ix.Insert(record("img/MAX-a-cat.jpg", "session-a", "a cat"))
	ix.Insert(record("img/MAX-b-dog.jpg", "session-b", "a dog"))

	tests := []struct {
		name      string
		owner     string
		wantPaths []string
	}{
		{
			name:      "session sees public plus its own",
			owner:     "session-a",
			wantPaths: []string{"img/MAX-a-cat.jpg", "img/seed.jpg"},
		},
		{
			name:      "other session does not see foreign uploads",
			owner:     "session-b",
			wantPaths: []string{"img/MAX-b-dog.jpg", "img/seed.jpg"},
		},
		{
			name:      "no session sees only public",
			owner:     "",
			wantPaths: []string{"img/seed.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ix.VisibleTo(tt.owner)
			if len(got) != len(tt.wantPaths) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.wantPaths))
			}
			for i, want := range tt.wantPaths {
				if got[i].Path != want {
					t.Errorf("record %d = %q, want %q", i, got[i].Path, want)
				}
			}
		})
	}

	if _, ok := ix.Get("img/MAX-b-dog.jpg", "session-a"); ok {
		t.Error("session-a can read session-b's record")
	}
	if _, ok := ix.Get("img/seed.jpg", "session-a"); !ok {
		t.Error("public record not visible to a session")
	}
}

func TestSortIsCaseInsensitive(t *testing.T) {
	ix := New()
	ix.Insert(record("img/Banana.jpg", "", "banana"))
	ix.Insert(record("img/apple.jpg", "", "apple"))
	ix.Insert(record("img/Cherry.jpg", "", "cherry"))

	got := ix.VisibleTo("")
	want := []string{"img/apple.jpg", "img/Banana.jpg", "img/Cherry.jpg"}
	for i, path := range want {
		if got[i].Path != path {
			t.Errorf("position %d = %q, want %q", i, got[i].Path, path)
		}
	}
}

func TestConcurrentWriters(t *testing.T) {
	ix := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ix.Insert(record(string(rune('a'+i%26))+".jpg", "s", "x"))
			ix.VisibleTo("s")
			ix.Remove("never.jpg")
		}(i)
	}
	wg.Wait()

	if ix.Len() != 26 {
		t.Errorf("expected 26 records, got %d", ix.Len())
	}
}

func TestManaged(t *testing.T) {
	ix := New()
	ix.Insert(record("img/seed.jpg", "", "a tree"))
	ix.Insert(record("img/MAX-a-cat.jpg", "session-a", "a cat"))
	ix.Insert(record("img/MAX-b-dog.jpg", "session-b", "a dog"))

	if got := ix.Managed(""); len(got) != 2 {
		t.Errorf("all managed: got %d records, want 2", len(got))
	}
	got := ix.Managed("session-a")
	if len(got) != 1 || got[0].Path != "img/MAX-a-cat.jpg" {
		t.Errorf("managed for session-a: got %v", got)
	}
}
