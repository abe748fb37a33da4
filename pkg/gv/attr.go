package gv

import (
	"maps"

	"github.com/matzehuels/gvbind/pkg/errors"
	"github.com/matzehuels/gvbind/pkg/gv/attr"
)

// Attributes is the string attribute table shared by [*Graph], [Node] and
// [Edge].
//
// Values written through Attributes are mirrored onto the native object.
// Reads consult the values set through this interface first. While the
// graph carries a layout, attributes the engine has written back (bb after
// layout; pos, width and height once DOT output has been produced) are
// visible as well.
type Attributes interface {
	// SetAttr creates or replaces key.
	SetAttr(key, value string) error
	// SetAttrIfAbsent sets key only when it has no value yet.
	SetAttrIfAbsent(key, value string) error
	// SetAttrs sets every pair of attrs.
	SetAttrs(attrs map[string]string) error
	// Attr returns the value of key or an ATTRIBUTE_NOT_FOUND error.
	Attr(key string) (string, error)
	// LookupAttr returns the value of key and whether it is present.
	LookupAttr(key string) (string, bool)
	// HasAttr reports whether key is present.
	HasAttr(key string) bool
	// RemoveAttr deletes key and reports whether it was present.
	RemoveAttr(key string) (bool, error)
	// Attrs returns a copy of the explicitly set attributes.
	Attrs() map[string]string
}

var (
	_ Attributes = (*Graph)(nil)
	_ Attributes = Node{}
	_ Attributes = Edge{}
)

type objKind int

const (
	kindGraph objKind = iota
	kindNode
	kindEdge
)

func (k objKind) String() string {
	switch k {
	case kindGraph:
		return "graph"
	case kindNode:
		return "node"
	default:
		return "edge"
	}
}

// nativeObject is the attribute surface cgraph exposes on graphs, nodes
// and edges.
type nativeObject interface {
	Set(name, value string) error
	SafeSet(name, value, def string) error
	GetStr(name string) string
}

type attrTable map[string]string

// declaredDefault is the default an attribute is declared with when first
// written. Nodes fall back to their name for labels; everything else to
// the empty string, which the engine reads as "unset".
func declaredDefault(kind objKind, key string) string {
	if kind == kindNode && key == attr.Label {
		return `\N`
	}
	return ""
}

func (t attrTarget) defaultFor(key string) string {
	if v, ok := t.defaults[key]; ok {
		return v
	}
	return declaredDefault(t.kind, key)
}

// attrTarget binds a table to its native object for one call.
type attrTarget struct {
	kind     objKind
	table    *attrTable
	native   nativeObject
	defaults attrTable
	laidOut  bool
	ownerErr error
}

func (t attrTarget) set(key, value string) error {
	if t.ownerErr != nil {
		return t.ownerErr
	}
	if err := errors.ValidateAttr(key, value); err != nil {
		return err
	}
	if err := t.native.SafeSet(key, value, t.defaultFor(key)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "set %s attribute %q", t.kind, key).WithOp("set attribute")
	}
	if *t.table == nil {
		*t.table = make(attrTable)
	}
	(*t.table)[key] = value
	return nil
}

func (t attrTarget) setIfAbsent(key, value string) error {
	if _, ok := t.lookup(key); ok {
		return nil
	}
	return t.set(key, value)
}

func (t attrTarget) setAll(attrs map[string]string) error {
	for k, v := range attrs {
		if err := t.set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (t attrTarget) lookup(key string) (string, bool) {
	if t.ownerErr != nil {
		return "", false
	}
	if v, ok := (*t.table)[key]; ok {
		return v, true
	}
	if !t.laidOut || key == "" {
		return "", false
	}
	if v := t.native.GetStr(key); v != "" && v != t.defaultFor(key) {
		return v, true
	}
	return "", false
}

func (t attrTarget) get(key string) (string, error) {
	if t.ownerErr != nil {
		return "", t.ownerErr
	}
	v, ok := t.lookup(key)
	if !ok {
		return "", errors.New(errors.ErrCodeAttrNotFound, "%s attribute %q not set", t.kind, key).WithOp("get attribute")
	}
	return v, nil
}

func (t attrTarget) remove(key string) (bool, error) {
	if t.ownerErr != nil {
		return false, t.ownerErr
	}
	if _, ok := (*t.table)[key]; !ok {
		return false, nil
	}
	if err := t.native.Set(key, t.defaultFor(key)); err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "reset %s attribute %q", t.kind, key).WithOp("remove attribute")
	}
	delete(*t.table, key)
	return true, nil
}

func (t attrTarget) all() map[string]string {
	if t.ownerErr != nil || *t.table == nil {
		return map[string]string{}
	}
	return maps.Clone(map[string]string(*t.table))
}

func (g *Graph) target(op string) attrTarget {
	if err := g.check(op); err != nil {
		return attrTarget{ownerErr: err}
	}
	return attrTarget{kind: kindGraph, table: &g.attrs, native: g.native, laidOut: g.ctx != nil}
}

func (n Node) target(op string) attrTarget {
	if err := n.check(op); err != nil {
		return attrTarget{ownerErr: err}
	}
	s := n.slot()
	return attrTarget{kind: kindNode, table: &s.attrs, native: s.native, defaults: n.g.nodeDefaults, laidOut: n.g.ctx != nil}
}

func (e Edge) target(op string) attrTarget {
	if err := e.check(op); err != nil {
		return attrTarget{ownerErr: err}
	}
	s := e.slot()
	return attrTarget{kind: kindEdge, table: &s.attrs, native: s.native, defaults: e.g.edgeDefaults, laidOut: e.g.ctx != nil}
}

func (g *Graph) SetAttr(key, value string) error {
	return g.target("set attribute").set(key, value)
}

func (g *Graph) SetAttrIfAbsent(key, value string) error {
	return g.target("set attribute").setIfAbsent(key, value)
}

func (g *Graph) SetAttrs(attrs map[string]string) error {
	return g.target("set attribute").setAll(attrs)
}

func (g *Graph) Attr(key string) (string, error) {
	return g.target("get attribute").get(key)
}

func (g *Graph) LookupAttr(key string) (string, bool) {
	return g.target("").lookup(key)
}

func (g *Graph) HasAttr(key string) bool {
	_, ok := g.target("").lookup(key)
	return ok
}

func (g *Graph) RemoveAttr(key string) (bool, error) {
	return g.target("remove attribute").remove(key)
}

func (g *Graph) Attrs() map[string]string {
	return g.target("").all()
}

func (n Node) SetAttr(key, value string) error {
	return n.target("set attribute").set(key, value)
}

func (n Node) SetAttrIfAbsent(key, value string) error {
	return n.target("set attribute").setIfAbsent(key, value)
}

func (n Node) SetAttrs(attrs map[string]string) error {
	return n.target("set attribute").setAll(attrs)
}

func (n Node) Attr(key string) (string, error) {
	return n.target("get attribute").get(key)
}

func (n Node) LookupAttr(key string) (string, bool) {
	return n.target("").lookup(key)
}

func (n Node) HasAttr(key string) bool {
	_, ok := n.target("").lookup(key)
	return ok
}

func (n Node) RemoveAttr(key string) (bool, error) {
	return n.target("remove attribute").remove(key)
}

func (n Node) Attrs() map[string]string {
	return n.target("").all()
}

func (e Edge) SetAttr(key, value string) error {
	return e.target("set attribute").set(key, value)
}

func (e Edge) SetAttrIfAbsent(key, value string) error {
	return e.target("set attribute").setIfAbsent(key, value)
}

func (e Edge) SetAttrs(attrs map[string]string) error {
	return e.target("set attribute").setAll(attrs)
}

func (e Edge) Attr(key string) (string, error) {
	return e.target("get attribute").get(key)
}

func (e Edge) LookupAttr(key string) (string, bool) {
	return e.target("").lookup(key)
}

func (e Edge) HasAttr(key string) bool {
	_, ok := e.target("").lookup(key)
	return ok
}

func (e Edge) RemoveAttr(key string) (bool, error) {
	return e.target("remove attribute").remove(key)
}

func (e Edge) Attrs() map[string]string {
	return e.target("").all()
}
