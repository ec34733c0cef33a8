package crdt

import "errors"

// ErrNotFound indicates an operation referenced a chapter, note,
// entity, schema, or session that does not exist (or is deleted).
var ErrNotFound = errors.New("crdt: not found")

// ErrAlreadyExists indicates a create operation named a unique key
// that is already occupied.
var ErrAlreadyExists = errors.New("crdt: already exists")
