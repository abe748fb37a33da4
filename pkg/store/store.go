// Package store persists rendered artifacts so they can be fetched again
// by ID.
//
// The HTTP server writes every render to a Store and returns the artifact
// ID in the X-Artifact-ID header; GET /v1/artifacts/{id} reads it back.
// Two backends exist:
//   - [Memory]: process-local, for the CLI and tests
//   - [Mongo]: MongoDB, for deployments with several server instances
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Artifact is one rendered output.
type Artifact struct {
	ID        string    `json:"id" bson:"_id"`
	GraphHash string    `json:"graph_hash" bson:"graph_hash"`
	Graph     string    `json:"graph" bson:"graph"`
	Engine    string    `json:"engine" bson:"engine"`
	Format    string    `json:"format" bson:"format"`
	MIMEType  string    `json:"mime_type" bson:"mime_type"`
	Size      int       `json:"size" bson:"size"`
	Data      []byte    `json:"-" bson:"data"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero" bson:"expires_at,omitempty"`
}

// IsExpired reports whether a has an expiry in the past.
func (a *Artifact) IsExpired() bool {
	return !a.ExpiresAt.IsZero() && time.Now().After(a.ExpiresAt)
}

// Meta returns a copy of a without its data.
func (a *Artifact) Meta() *Artifact {
	m := *a
	m.Data = nil
	return &m
}

// Store is the interface for artifact storage backends.
type Store interface {
	// Put stores a, assigning ID and CreatedAt when they are unset.
	Put(ctx context.Context, a *Artifact) error

	// Get returns the artifact with id, or a NOT_FOUND error when it does
	// not exist or has expired.
	Get(ctx context.Context, id string) (*Artifact, error)

	// Delete removes an artifact. Deleting a missing artifact is not an
	// error.
	Delete(ctx context.Context, id string) error

	// List returns up to limit artifacts rendered from graphHash, newest
	// first, without their data.
	List(ctx context.Context, graphHash string, limit int) ([]*Artifact, error)

	Close(ctx context.Context) error
}

// DefaultTTL is how long the server keeps artifacts.
const DefaultTTL = 24 * time.Hour

// prepare fills in ID and CreatedAt.
func prepare(a *Artifact) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.Size = len(a.Data)
}
