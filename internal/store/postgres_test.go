package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// openTestPool connects to TEST_DATABASE_URL or skips the test.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresStore(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()

	s := NewPostgresStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	meta, err := s.Save(ctx, NewArtifact{Name: "out.csv", ContentType: "text/csv", Operation: "json-to-csv", Content: []byte("a\n1\n")})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM conversion_artifacts WHERE id = $1::uuid`, meta.ID)
	})

	got, body, err := s.Open(ctx, meta.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got.Name != "out.csv" || got.Operation != "json-to-csv" || got.Size != 4 {
		t.Errorf("Open metadata = %+v", got)
	}
	if string(body) != "a\n1\n" {
		t.Errorf("content = %q", body)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	found := false
	for _, a := range recent {
		if a.ID == meta.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("Recent does not include %s", meta.ID)
	}

	if _, _, err := s.Open(ctx, "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open bad id = %v, want ErrNotFound", err)
	}
	if _, _, err := s.Open(ctx, "00000000-0000-4000-8000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open missing = %v, want ErrNotFound", err)
	}
}
