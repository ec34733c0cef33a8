/*
Package crdt implements the replicated document engine for a single
project: a mapping of top-level metadata, two ordered trees (chapters
and notes) with fractional-index siblings, a schema-keyed entity map,
an opaque session map, and a collaborative rich-text body attached to
every chapter and note node.

Concurrent writes converge deterministically: scalar fields resolve
last-writer-wins by a (counter, replica) causal pair, list/tree
siblings order by fractional-index strings, and body text uses an
RGA-style sequence CRDT keyed by per-insertion operation ids so that
replicas applying the same set of operations in any order end up with
the same text.

No general-purpose CRDT runtime in the examined ecosystem offers
ordered trees with fractional indexing plus attributed rich text
together (see DESIGN.md); the primitives here are grounded directly in
the original Rust engine's container layout rather than any Go
library.
*/
package crdt
