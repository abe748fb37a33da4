package gv

import (
	"maps"

	"github.com/goccy/go-graphviz/cgraph"

	"github.com/matzehuels/gvbind/pkg/errors"
)

// SetNodeDefault declares the default value of a node attribute, like a
// DOT "node [key=value]" statement. As in DOT it applies to nodes created
// afterwards; nodes that already exist keep their values.
func (g *Graph) SetNodeDefault(key, value string) error {
	return g.setDefault(cgraph.NODE, kindNode, &g.nodeDefaults, key, value)
}

// SetEdgeDefault is the edge counterpart of SetNodeDefault.
func (g *Graph) SetEdgeDefault(key, value string) error {
	return g.setDefault(cgraph.EDGE, kindEdge, &g.edgeDefaults, key, value)
}

// NodeDefaults returns a copy of the declared node defaults.
func (g *Graph) NodeDefaults() map[string]string {
	return maps.Clone(map[string]string(g.nodeDefaults))
}

// EdgeDefaults returns a copy of the declared edge defaults.
func (g *Graph) EdgeDefaults() map[string]string {
	return maps.Clone(map[string]string(g.edgeDefaults))
}

func (g *Graph) setDefault(tag cgraph.ObjectTag, kind objKind, table *attrTable, key, value string) error {
	if err := g.check("set default"); err != nil {
		return err
	}
	if err := errors.ValidateAttr(key, value); err != nil {
		return err
	}
	declared, err := g.declared(tag, key)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "look up attribute %q", key).WithOp("set default")
	}
	// Declaring a new attribute stamps its default onto every existing
	// object, so declare it unset first and only then set the default.
	if !declared {
		if _, err := g.native.Attr(int(tag), key, declaredDefault(kind, key)); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "declare attribute %q", key).WithOp("set default")
		}
	}
	if _, err := g.native.Attr(int(tag), key, value); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "declare default %q", key).WithOp("set default")
	}
	if *table == nil {
		*table = make(attrTable)
	}
	(*table)[key] = value
	return nil
}

// declared reports whether key is already in the native attribute
// dictionary for objects of the given kind.
func (g *Graph) declared(tag cgraph.ObjectTag, key string) (bool, error) {
	sym, err := g.native.NextAttr(int(tag), nil)
	for ; err == nil && sym != nil; sym, err = g.native.NextAttr(int(tag), sym) {
		if sym.Name() == key {
			return true, nil
		}
	}
	return false, err
}
