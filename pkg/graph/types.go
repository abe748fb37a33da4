package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/gvbind/pkg/cache"
	"github.com/matzehuels/gvbind/pkg/errors"
)

// DefaultName is used when a description has no name.
const DefaultName = "G"

// Graph is a serializable graph description.
type Graph struct {
	Name         string            `json:"name,omitempty" toml:"name,omitempty" bson:"name,omitempty"`
	Directed     *bool             `json:"directed,omitempty" toml:"directed,omitempty" bson:"directed,omitempty"`
	Strict       bool              `json:"strict,omitempty" toml:"strict,omitempty" bson:"strict,omitempty"`
	Attrs        map[string]string `json:"attrs,omitempty" toml:"attrs,omitempty" bson:"attrs,omitempty"`
	NodeDefaults map[string]string `json:"node_defaults,omitempty" toml:"node_defaults,omitempty" bson:"node_defaults,omitempty"`
	EdgeDefaults map[string]string `json:"edge_defaults,omitempty" toml:"edge_defaults,omitempty" bson:"edge_defaults,omitempty"`
	Nodes        []Node            `json:"nodes,omitempty" toml:"nodes,omitempty" bson:"nodes,omitempty"`
	Edges        []Edge            `json:"edges,omitempty" toml:"edges,omitempty" bson:"edges,omitempty"`
}

// Node describes one node. ID doubles as the node name in the engine.
type Node struct {
	ID    string            `json:"id" toml:"id" bson:"id"`
	Attrs map[string]string `json:"attrs,omitempty" toml:"attrs,omitempty" bson:"attrs,omitempty"`
}

// Edge describes one edge between two node IDs.
type Edge struct {
	From  string            `json:"from" toml:"from" bson:"from"`
	To    string            `json:"to" toml:"to" bson:"to"`
	Name  string            `json:"name,omitempty" toml:"name,omitempty" bson:"name,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty" toml:"attrs,omitempty" bson:"attrs,omitempty"`
}

// IsDirected reports whether the described graph is directed. A missing
// directed field means true.
func (g *Graph) IsDirected() bool {
	return g.Directed == nil || *g.Directed
}

// GraphName returns Name, or DefaultName when it is empty.
func (g *Graph) GraphName() string {
	if g.Name == "" {
		return DefaultName
	}
	return g.Name
}

// Validate checks names and attributes without touching the engine.
// Duplicate node IDs are rejected; the engine would silently merge them.
func (g *Graph) Validate() error {
	if err := errors.ValidateName("graph", g.Name); err != nil {
		return err
	}
	for _, table := range []map[string]string{g.Attrs, g.NodeDefaults, g.EdgeDefaults} {
		if err := validateAttrs(table); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidInput, "node %d has no id", i)
		}
		if err := errors.ValidateName("node", n.ID); err != nil {
			return err
		}
		if seen[n.ID] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
		if err := validateAttrs(n.Attrs); err != nil {
			return err
		}
	}

	for i, e := range g.Edges {
		if e.From == "" || e.To == "" {
			return errors.New(errors.ErrCodeInvalidInput, "edge %d needs both from and to", i)
		}
		for _, name := range []string{e.From, e.To, e.Name} {
			if err := errors.ValidateName("edge", name); err != nil {
				return err
			}
		}
		if err := validateAttrs(e.Attrs); err != nil {
			return err
		}
	}
	return nil
}

func validateAttrs(m map[string]string) error {
	for _, k := range sortedKeys(m) {
		if err := errors.ValidateAttr(k, m[k]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}

// Hash returns the SHA-256 of the canonical JSON encoding. Descriptions
// that build the same graph hash equal: a missing directed field and
// directed = true are the same, as are an empty name and DefaultName.
func (g *Graph) Hash() string {
	c := *g
	c.Name = g.GraphName()
	c.Directed = nil
	if !g.IsDirected() {
		undirected := false
		c.Directed = &undirected
	}
	// encoding/json sorts map keys, so the encoding is canonical.
	data, err := json.Marshal(&c)
	if err != nil {
		// Only strings and string maps are encoded; keep Hash total anyway.
		data = fmt.Appendf(nil, "%#v", c)
	}
	return cache.Hash(data)
}
