package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ablomer/steam-clip-bot/internal/types"
)

func newTestIndex(t *testing.T) *ClipIndex {
	t.Helper()
	index, err := NewClipIndex(filepath.Join(t.TempDir(), "clips.db"))
	if err != nil {
		t.Fatalf("NewClipIndex failed: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return index
}

func TestClipIndexRecordAndCount(t *testing.T) {
	index := newTestIndex(t)

	count, err := index.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("expected empty index, got %d", count)
	}

	clip := types.Clip{
		ID:          "id-1",
		SourceURL:   "https://cdn.steamusercontent.com/ugc/111/aaa",
		Filename:    "id-1.mp4",
		SizeBytes:   1024,
		RequestedBy: "user-1",
		CreatedAt:   time.Now(),
	}
	if err := index.Record(clip); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	count, err = index.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 clip, got %d", count)
	}
}

func TestClipIndexRecent(t *testing.T) {
	index := newTestIndex(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		clip := types.Clip{
			ID:          id,
			SourceURL:   "https://cdn.steamusercontent.com/ugc/111/" + id,
			Filename:    id + ".mp4",
			SizeBytes:   int64(i),
			RequestedBy: "user-1",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := index.Record(clip); err != nil {
			t.Fatal(err)
		}
	}

	clips, err := index.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(clips) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(clips))
	}
	if clips[0].ID != "new" || clips[1].ID != "mid" {
		t.Errorf("unexpected order: %s, %s", clips[0].ID, clips[1].ID)
	}
}

func TestClipIndexRejectsDuplicateID(t *testing.T) {
	index := newTestIndex(t)

	clip := types.Clip{
		ID:        "dup",
		SourceURL: "https://cdn.steamusercontent.com/ugc/111/x",
		Filename:  "dup.mp4",
		CreatedAt: time.Now(),
	}
	if err := index.Record(clip); err != nil {
		t.Fatal(err)
	}
	if err := index.Record(clip); err == nil {
		t.Error("expected duplicate id insert to fail")
	}
}
