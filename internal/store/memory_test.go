package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

func TestMemoryStore_SaveOpen(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	content := []byte(`{"a":1}`)
	meta, err := s.Save(ctx, NewArtifact{Name: "out.json", ContentType: "application/json", Operation: "xml-to-json", Content: content})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := uuid.Parse(meta.ID); err != nil {
		t.Errorf("ID %q is not a UUID: %v", meta.ID, err)
	}
	if meta.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", meta.Size, len(content))
	}

	// The store keeps its own copy.
	content[0] = 'x'

	got, body, err := s.Open(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if diff := cmp.Diff(meta, got); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}
	if string(body) != `{"a":1}` {
		t.Errorf("content = %s, want {\"a\":1}", body)
	}
}

func TestMemoryStore_OpenMissing(t *testing.T) {
	s := NewMemoryStore()
	_, _, err := s.Open(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Open missing = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_RecentAndDeleteBefore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return at }
		meta, err := s.Save(ctx, NewArtifact{Name: "f", Content: []byte("x")})
		if err != nil {
			t.Fatalf("Save: %v", err)
		}
		ids = append(ids, meta.ID)
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	var gotIDs []string
	for _, a := range recent {
		gotIDs = append(gotIDs, a.ID)
	}
	if diff := cmp.Diff([]string{ids[2], ids[1]}, gotIDs); diff != "" {
		t.Errorf("Recent mismatch (-want +got):\n%s", diff)
	}

	removed, err := s.DeleteBefore(ctx, base.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if _, _, err := s.Open(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open purged artifact = %v, want ErrNotFound", err)
	}
	if _, _, err := s.Open(ctx, ids[2]); err != nil {
		t.Errorf("Open kept artifact: %v", err)
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Save(ctx, NewArtifact{Name: "f"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Save with canceled context = %v, want context.Canceled", err)
	}
}

func TestMemoryStore_ConcurrentSave(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Save(ctx, NewArtifact{Name: "f", Content: []byte("x")}); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	recent, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 20 {
		t.Errorf("len(Recent) = %d, want 20", len(recent))
	}
}
