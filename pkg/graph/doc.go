// Package graph provides serializable graph descriptions.
//
// A description is the wire format for graphs handed to gvbind from files,
// HTTP requests and the artifact store. It is plain data: building it
// produces a [gv.Graph] that owns native engine resources, and
// [Describe] goes the other way.
//
// # Format
//
// Descriptions are JSON or TOML:
//
//	name = "deps"
//	strict = true
//
//	[attrs]
//	rankdir = "LR"
//
//	[node_defaults]
//	shape = "box"
//
//	[[nodes]]
//	id = "app"
//	attrs = { color = "red" }
//
//	[[edges]]
//	from = "app"
//	to = "lib"
//
// Edges may name nodes that are not listed under nodes; those are created
// with no attributes, as in DOT. Graphs are directed unless directed is set
// to false.
//
// # Layouts
//
// [Extract] reads the geometry the engine computed for a laid-out graph
// into a [Layout], which serializes like a description.
//
// # Hashing
//
// [Graph.Hash] is a content hash over the canonical JSON form. Two
// descriptions that differ only in map ordering hash the same, which makes
// the hash usable as a cache key.
package graph
