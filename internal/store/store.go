// Package store persists conversion artifacts so they can be downloaded
// after the request that produced them has finished.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no artifact has the requested ID.
var ErrNotFound = errors.New("artifact not found")

// Artifact describes a stored conversion output.
type Artifact struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Operation   string    `json:"operation"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewArtifact is the input to Store.Save.
type NewArtifact struct {
	Name        string
	ContentType string
	Operation   string
	Content     []byte
}

// Store saves and loads artifacts. Implementations are safe for concurrent use.
type Store interface {
	// Save stores the content under a new UUID and returns its metadata.
	Save(ctx context.Context, a NewArtifact) (Artifact, error)

	// Open returns the metadata and content of an artifact, or ErrNotFound.
	Open(ctx context.Context, id string) (Artifact, []byte, error)

	// Recent lists up to limit artifacts, newest first.
	Recent(ctx context.Context, limit int) ([]Artifact, error)

	// DeleteBefore removes artifacts created before cutoff and reports how
	// many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
