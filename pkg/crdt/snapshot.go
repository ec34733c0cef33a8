package crdt

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// snapshotWire is the full serialized state of a Document: every
// register, registry, and text body, plus the version vector that
// describes exactly how much history it reflects.
type snapshotWire struct {
	ProjectID    uuid.UUID               `json:"projectId"`
	VV           VersionVector           `json:"vv"`
	Meta         map[string]fieldValue   `json:"meta"`
	Chapters     map[string]*nodeState   `json:"chapters"`
	Notes        map[string]*nodeState   `json:"notes"`
	EntityExists map[string]OpID         `json:"entityExists"`
	EntityGone   map[string]bool         `json:"entityGone"`
	Sessions     map[string]fieldValue   `json:"sessions"`
	SessionOrder []string                `json:"sessionOrder"`
	Texts        map[string][]*textElem  `json:"texts"`
	DeletedText  map[string][]OpID       `json:"deletedText"`
}

// updatesWire is an exportUpdates payload: the ops not yet covered by
// the version vector the caller supplied.
type updatesWire struct {
	Ops []Op `json:"ops"`
}

// envelopeKind distinguishes the two export shapes on the wire so
// ImportUpdates can tell them apart without the caller tagging it.
type envelopeKind string

const (
	envelopeSnapshot envelopeKind = "snapshot"
	envelopeUpdates  envelopeKind = "updates"
)

type envelope struct {
	Kind envelopeKind    `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// ExportSnapshot serializes the full document state.
func (d *Document) ExportSnapshot() ([]byte, error) {
	w := snapshotWire{
		ProjectID:    d.projectID,
		VV:           d.vv.Clone(),
		Meta:         d.meta.fields,
		Chapters:     d.chapters.nodes,
		Notes:        d.notes.nodes,
		EntityExists: d.entityEx.created,
		EntityGone:   d.entityEx.deleted,
		Sessions:     d.sessions.fields,
		SessionOrder: d.sessionOrder,
		Texts:        make(map[string][]*textElem, len(d.texts)),
		DeletedText:  make(map[string][]OpID, len(d.texts)),
	}
	for owner, t := range d.texts {
		w.Texts[owner] = t.elems
		for id := range t.deletedIDs {
			w.DeletedText[owner] = append(w.DeletedText[owner], id)
		}
	}
	body, err := json.Marshal(w)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: envelopeSnapshot, Body: body})
}

// ExportUpdates serializes every op this document has applied that
// since does not already cover.
func (d *Document) ExportUpdates(since VersionVector) ([]byte, error) {
	var ops []Op
	for _, op := range d.log {
		if since.Covers(op.ID) {
			continue
		}
		ops = append(ops, op)
	}
	body, err := json.Marshal(updatesWire{Ops: ops})
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: envelopeUpdates, Body: body})
}

// ImportUpdates applies a snapshot or an update batch produced by
// ExportSnapshot / ExportUpdates. Applying an already-known op, or a
// snapshot older than current state, is a safe no-op for every field
// already at or past that state.
func (d *Document) ImportUpdates(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("crdt: malformed import: %w", err)
	}
	switch env.Kind {
	case envelopeSnapshot:
		return d.importSnapshot(env.Body)
	case envelopeUpdates:
		return d.importUpdateBatch(env.Body)
	default:
		return fmt.Errorf("crdt: unknown envelope kind %q", env.Kind)
	}
}

func (d *Document) importSnapshot(body json.RawMessage) error {
	var w snapshotWire
	if err := json.Unmarshal(body, &w); err != nil {
		return fmt.Errorf("crdt: malformed snapshot: %w", err)
	}

	for k, fv := range w.Meta {
		d.meta.set(k, fv.ID, fv.Value)
	}
	for id, n := range w.Chapters {
		d.chapters.create(id, n.ParentID, n.FracKey, n.MoveID)
		d.chapters.move(id, n.ParentID, n.FracKey, n.MoveID)
		if n.Deleted {
			d.chapters.delete(id)
		}
	}
	for id, n := range w.Notes {
		d.notes.create(id, n.ParentID, n.FracKey, n.MoveID)
		d.notes.move(id, n.ParentID, n.FracKey, n.MoveID)
		if n.Deleted {
			d.notes.delete(id)
		}
	}
	for key, id := range w.EntityExists {
		d.entityEx.create(key, id)
	}
	for key, gone := range w.EntityGone {
		if gone {
			d.entityEx.drop(key)
		}
	}
	for k, fv := range w.Sessions {
		if d.sessions.set(k, fv.ID, fv.Value) {
			d.sessionOrder = append(d.sessionOrder, k)
		}
	}
	for owner, elems := range w.Texts {
		t := d.textFor(owner)
		for _, e := range elems {
			t.applyInsert(e)
		}
	}
	for owner, ids := range w.DeletedText {
		t := d.textFor(owner)
		for _, id := range ids {
			t.applyDelete(id)
		}
	}
	for replica, counter := range w.VV {
		d.vv.Advance(OpID{Replica: replica, Counter: counter})
	}
	return nil
}

func (d *Document) importUpdateBatch(body json.RawMessage) error {
	var w updatesWire
	if err := json.Unmarshal(body, &w); err != nil {
		return fmt.Errorf("crdt: malformed updates: %w", err)
	}
	for _, op := range w.Ops {
		d.apply(op)
	}
	return nil
}
