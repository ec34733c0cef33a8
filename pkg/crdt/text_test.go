package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertString(t *rgaText, c *clock, pos int, s string) {
	origin, hasOrigin := t.originAt(pos)
	var lastID OpID
	for i, r := range []rune(s) {
		id := c.next()
		e := &textElem{ID: id, Rune: r}
		if i == 0 {
			e.Origin, e.HasOrigin = origin, hasOrigin
		} else {
			e.Origin, e.HasOrigin = lastID, true
		}
		t.applyInsert(e)
		lastID = id
	}
}

func TestRGATextInsertAndDelete(t *testing.T) {
	text := newRGAText()
	c := newClock(1)

	insertString(text, c, 0, "hello")
	assert.Equal(t, "hello", text.String())

	insertString(text, c, 5, " world")
	assert.Equal(t, "hello world", text.String())

	ids := text.idsInRange(0, 5)
	require.Len(t, ids, 5)
	for _, id := range ids {
		text.applyDelete(id)
	}
	assert.Equal(t, " world", text.String())
}

func TestRGATextDeleteBeforeInsertArrivesIsHonored(t *testing.T) {
	text := newRGAText()
	elem := &textElem{ID: OpID{Replica: 1, Counter: 1}, Rune: 'x'}

	text.applyDelete(elem.ID)
	text.applyInsert(elem)

	assert.Equal(t, "", text.String())
}

func TestRGATextConcurrentInsertsAtSamePositionConverge(t *testing.T) {
	base := newRGAText()
	clockA := newClock(1)
	clockB := newClock(2)

	insertString(base, clockA, 0, "base")

	// two replicas diverge from the same base state
	replicaA := cloneText(base)
	replicaB := cloneText(base)

	insertString(replicaA, clockA, 0, "A")
	insertString(replicaB, clockB, 0, "B")

	// merge: apply each other's new elements into both
	newA := replicaA.elems[:1] // the single 'A' element inserted at the front
	newB := replicaB.elems[:1]

	merged1 := cloneText(base)
	merged1.applyInsert(cloneElem(newA[0]))
	merged1.applyInsert(cloneElem(newB[0]))

	merged2 := cloneText(base)
	merged2.applyInsert(cloneElem(newB[0]))
	merged2.applyInsert(cloneElem(newA[0]))

	assert.Equal(t, merged1.String(), merged2.String())
}

func cloneText(t *rgaText) *rgaText {
	out := newRGAText()
	for _, e := range t.elems {
		out.applyInsert(cloneElem(e))
	}
	return out
}

func cloneElem(e *textElem) *textElem {
	cp := *e
	return &cp
}
