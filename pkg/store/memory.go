package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// Memory keeps artifacts in a map. Expired artifacts are dropped when they
// are next read.
type Memory struct {
	mu        sync.RWMutex
	artifacts map[string]*Artifact
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{artifacts: make(map[string]*Artifact)}
}

func (m *Memory) Put(ctx context.Context, a *Artifact) error {
	prepare(a)
	cp := *a
	cp.Data = slices.Clone(a.Data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[a.ID] = &cp
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*Artifact, error) {
	if err := errors.ValidateArtifactID(id); err != nil {
		return nil, err
	}

	m.mu.RLock()
	a, ok := m.artifacts[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	if a.IsExpired() {
		_ = m.Delete(ctx, id)
		return nil, notFound(id)
	}
	cp := *a
	cp.Data = slices.Clone(a.Data)
	return &cp, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.artifacts, id)
	return nil
}

func (m *Memory) List(ctx context.Context, graphHash string, limit int) ([]*Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Artifact
	for _, a := range m.artifacts {
		if a.GraphHash == graphHash && !a.IsExpired() {
			out = append(out, a.Meta())
		}
	}
	slices.SortFunc(out, func(x, y *Artifact) int {
		return cmp.Or(y.CreatedAt.Compare(x.CreatedAt), cmp.Compare(x.ID, y.ID))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close drops every artifact.
func (m *Memory) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.artifacts)
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "artifact %s not found", id)
}

var _ Store = (*Memory)(nil)
