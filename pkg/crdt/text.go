package crdt

// textElem is one inserted character in a collaborative rich-text
// body. Deletion never removes the element; it only flips Deleted, so
// a concurrent insert anchored on a deleted element still has a
// position to resolve against.
type textElem struct {
	ID        OpID
	Origin    OpID
	HasOrigin bool
	Rune      rune
	Deleted   bool
}

// rgaText is a replicated sequence of runes (RGA: Replicated Growable
// Array). Every element remembers the element it was inserted after
// ("origin"); concurrent insertions sharing an origin are ordered by
// descending OpID, so any replica applying the same set of inserts, in
// any order, reconstructs an identical sequence.
type rgaText struct {
	elems      []*textElem
	deletedIDs map[OpID]bool
}

func newRGAText() *rgaText {
	return &rgaText{deletedIDs: make(map[OpID]bool)}
}

// visible returns the rune content of non-deleted elements, in order.
func (t *rgaText) visible() []rune {
	out := make([]rune, 0, len(t.elems))
	for _, e := range t.elems {
		if !e.Deleted {
			out = append(out, e.Rune)
		}
	}
	return out
}

func (t *rgaText) String() string {
	return string(t.visible())
}

// originAt returns the origin id a new insertion at visible offset pos
// should carry: the id of the visible element immediately before pos,
// or (zero, false) for insertion at the very start.
func (t *rgaText) originAt(pos int) (OpID, bool) {
	seen := 0
	var last OpID
	hasLast := false
	for _, e := range t.elems {
		if e.Deleted {
			continue
		}
		if seen == pos {
			return last, hasLast
		}
		last = e.ID
		hasLast = true
		seen++
	}
	return last, hasLast
}

// idsInRange returns the element ids of the visible elements
// [pos, pos+length).
func (t *rgaText) idsInRange(pos, length int) []OpID {
	var ids []OpID
	seen := 0
	for _, e := range t.elems {
		if e.Deleted {
			continue
		}
		if seen >= pos && seen < pos+length {
			ids = append(ids, e.ID)
		}
		seen++
	}
	return ids
}

// applyInsert places elem in causal order relative to its origin. A
// prior delete of this same id (seen out of order) is honored
// immediately.
func (t *rgaText) applyInsert(elem *textElem) {
	for _, e := range t.elems {
		if e.ID == elem.ID {
			return // already present: re-applying an insert is a no-op
		}
	}

	idx := 0
	if elem.HasOrigin {
		found := -1
		for i, e := range t.elems {
			if e.ID == elem.Origin {
				found = i
				break
			}
		}
		if found == -1 {
			// origin hasn't arrived yet; append at the end rather than
			// fail, per the engine's gap-tolerant import contract.
			idx = len(t.elems)
		} else {
			idx = found + 1
		}
	}

	// Skip siblings that order before elem together with everything
	// inserted after them (their subtrees), so a sibling's run of text
	// is never split.
	skipped := make(map[OpID]bool)
	for idx < len(t.elems) {
		e := t.elems[idx]
		if e.HasOrigin && skipped[e.Origin] {
			skipped[e.ID] = true
			idx++
			continue
		}
		sameOrigin := e.HasOrigin == elem.HasOrigin && e.Origin == elem.Origin
		if !sameOrigin {
			break
		}
		if !elem.ID.less(e.ID) {
			break
		}
		skipped[e.ID] = true
		idx++
	}

	if t.deletedIDs[elem.ID] {
		elem.Deleted = true
	}

	t.elems = append(t.elems, nil)
	copy(t.elems[idx+1:], t.elems[idx:])
	t.elems[idx] = elem
}

// applyDelete tombstones id if present, and remembers the delete even
// if the insert for id has not arrived yet.
func (t *rgaText) applyDelete(id OpID) {
	t.deletedIDs[id] = true
	for _, e := range t.elems {
		if e.ID == id {
			e.Deleted = true
			return
		}
	}
}
