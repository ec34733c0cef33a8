package crdt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	treeChapters = "chapters"
	treeNotes    = "notes"
)

// ChapterData is the full read view of one chapter.
type ChapterData struct {
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Status      string  `json:"status"`
	POV         *string `json:"pov,omitempty"`
	Synopsis    *string `json:"synopsis,omitempty"`
	TargetWords *uint32 `json:"targetWords,omitempty"`
	Body        string  `json:"body"`
}

// ChapterSummary is the listChapters row shape.
type ChapterSummary struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// ChapterMetaUpdate is a partial update: a nil pointer leaves the field
// untouched, a pointer to nil clears it, a pointer to a value sets it.
type ChapterMetaUpdate struct {
	Title       *string            `json:"title,omitempty"`
	Status      *string            `json:"status,omitempty"`
	POV         *optionalString    `json:"pov,omitempty"`
	Synopsis    *optionalString    `json:"synopsis,omitempty"`
	TargetWords *optionalTargetLen `json:"targetWords,omitempty"`
}

type optionalString struct{ Value *string }
type optionalTargetLen struct{ Value *uint32 }

// NoteData is the full read view of one note.
type NoteData struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Color     *string  `json:"color,omitempty"`
	Label     *string  `json:"label,omitempty"`
	PositionX *float64 `json:"positionX,omitempty"`
	PositionY *float64 `json:"positionY,omitempty"`
	Body      string   `json:"body"`
}

// NoteSummary is the listNotes row shape.
type NoteSummary struct {
	Slug  string  `json:"slug"`
	Title string  `json:"title"`
	Color *string `json:"color,omitempty"`
}

// NoteMetaUpdate mirrors ChapterMetaUpdate for the note surface.
type NoteMetaUpdate struct {
	Title     *string            `json:"title,omitempty"`
	Color     *optionalString    `json:"color,omitempty"`
	Label     *optionalString    `json:"label,omitempty"`
	PositionX *optionalFloat     `json:"positionX,omitempty"`
	PositionY *optionalFloat     `json:"positionY,omitempty"`
}

type optionalFloat struct{ Value *float64 }

// EntityData is the full read view of one entity.
type EntityData struct {
	Slug       string          `json:"slug"`
	Title      string          `json:"title"`
	SchemaType string          `json:"schemaType"`
	Fields     map[string]any  `json:"fields"`
}

// SessionData is the full read view of one writing session.
type SessionData struct {
	ID               string   `json:"id"`
	Start            string   `json:"start"`
	End              *string  `json:"end,omitempty"`
	DurationMinutes  *float64 `json:"durationMinutes,omitempty"`
	WordsWritten     uint32   `json:"wordsWritten"`
	ChapterSlug      string   `json:"chapterSlug"`
	SprintGoal       *uint32  `json:"sprintGoal,omitempty"`
}

// Document is a single project's replicated state.
type Document struct {
	projectID uuid.UUID
	clock     *clock
	vv        VersionVector
	log       []Op

	meta     *lwwMap
	chapters *nodeRegistry
	notes    *nodeRegistry
	entities *lwwMap
	entityEx *existSet
	sessions *lwwMap
	sessionOrder []string
	texts    map[string]*rgaText

	lastInsertedID OpID
}

// New creates an empty document for projectID, owned by the given
// replica id. replica must be non-zero and unique per device.
func New(projectID uuid.UUID, replica uint64) *Document {
	return &Document{
		projectID: projectID,
		clock:     newClock(replica),
		vv:        make(VersionVector),
		meta:      newLWWMap(),
		chapters:  newNodeRegistry(),
		notes:     newNodeRegistry(),
		entities:  newLWWMap(),
		entityEx:  newExistSet(),
		sessions:  newLWWMap(),
		texts:     make(map[string]*rgaText),
	}
}

// ProjectID returns the project this document represents.
func (d *Document) ProjectID() uuid.UUID { return d.projectID }

// VersionVector returns a copy of the current version vector.
func (d *Document) VersionVector() VersionVector { return d.vv.Clone() }

func (d *Document) nextID() OpID {
	// Keep the local counter ahead of every counter already observed, so
	// a local write orders after everything it could have seen.
	for _, c := range d.vv {
		if c > d.clock.counter {
			d.clock.counter = c
		}
	}
	return d.clock.next()
}

// apply routes one op to its registry and records it as observed. It
// is a no-op if the op's id has already been applied.
func (d *Document) apply(op Op) {
	if d.vv.Covers(op.ID) {
		return
	}
	switch op.Kind {
	case opMetaSet:
		var p metaSetPayload
		_ = json.Unmarshal(op.Payload, &p)
		d.meta.set(p.Key, op.ID, p.Value)
	case opMetaClear:
		var p metaClearPayload
		_ = json.Unmarshal(op.Payload, &p)
		d.meta.clear(p.Key, op.ID)
	case opNodeCreate:
		var p nodePayload
		_ = json.Unmarshal(op.Payload, &p)
		d.registryFor(p.Tree).create(p.ID, p.ParentID, p.FracKey, op.ID)
	case opNodeMove:
		var p nodePayload
		_ = json.Unmarshal(op.Payload, &p)
		d.registryFor(p.Tree).move(p.ID, p.ParentID, p.FracKey, op.ID)
	case opNodeDelete:
		var p nodePayload
		_ = json.Unmarshal(op.Payload, &p)
		d.registryFor(p.Tree).delete(p.ID)
	case opTextInsert:
		var p textInsertPayload
		_ = json.Unmarshal(op.Payload, &p)
		d.textFor(p.Owner).applyInsert(&textElem{ID: p.ElemID, Origin: p.Origin, HasOrigin: p.HasOrigin, Rune: p.Rune})
	case opTextDelete:
		var p textDeletePayload
		_ = json.Unmarshal(op.Payload, &p)
		d.textFor(p.Owner).applyDelete(p.ElemID)
	case opEntityMake:
		var p entityPayload
		_ = json.Unmarshal(op.Payload, &p)
		d.entityEx.create(entityKey(p.Schema, p.Slug), op.ID)
	case opEntityDrop:
		var p entityPayload
		_ = json.Unmarshal(op.Payload, &p)
		d.entityEx.drop(entityKey(p.Schema, p.Slug))
	case opSessionSet:
		var p sessionSetPayload
		_ = json.Unmarshal(op.Payload, &p)
		if d.sessions.set(p.ID, op.ID, p.Value) {
			d.sessionOrder = append(d.sessionOrder, p.ID)
		}
	}
	d.vv.Advance(op.ID)
	d.log = append(d.log, op)
}

// emit stamps a fresh id, applies, and logs the op — the path every
// local mutation takes.
func (d *Document) emit(kind opKind, payload any) {
	id := d.nextID()
	d.apply(encodeOp(id, kind, payload))
}

func (d *Document) registryFor(tree string) *nodeRegistry {
	if tree == treeNotes {
		return d.notes
	}
	return d.chapters
}

func (d *Document) textFor(owner string) *rgaText {
	t, ok := d.texts[owner]
	if !ok {
		t = newRGAText()
		d.texts[owner] = t
	}
	return t
}

func metaKey(kind, slug, field string) string {
	return kind + "\x00" + slug + "\x00" + field
}

func entityKey(schema, slug string) string {
	return schema + "\x00" + slug
}

func entityFieldKey(schema, slug, field string) string {
	return schema + "\x00" + slug + "\x00" + field
}

func textOwner(tree, slug string) string {
	return tree + "\x00" + slug
}

func jsonRaw(v any) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}

func shortSuffix(id uuid.UUID) string {
	return strings.SplitN(id.String(), "-", 2)[0]
}

func slugify(title string) string {
	var b strings.Builder
	lastDash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "untitled"
	}
	return out
}

// ── Chapter surface ──────────────────────────────────────────────────

// CreateChapter creates a root chapter node with an empty body and
// returns its generated slug.
func (d *Document) CreateChapter(title string) string {
	slug := slugify(title) + "-" + shortSuffix(uuid.New())
	frac := keyBetween(d.lastSiblingKey(d.chapters, ""), "")

	d.emit(opNodeCreate, nodePayload{Tree: treeChapters, ID: slug, ParentID: "", FracKey: frac})
	d.emit(opMetaSet, metaSetPayload{Key: metaKey("chapter", slug, "title"), Value: jsonRaw(title)})
	d.emit(opMetaSet, metaSetPayload{Key: metaKey("chapter", slug, "status"), Value: jsonRaw("draft")})
	return slug
}

func (d *Document) lastSiblingKey(reg *nodeRegistry, parent string) string {
	children := reg.children(parent)
	if len(children) == 0 {
		return ""
	}
	return reg.nodes[children[len(children)-1]].FracKey
}

// GetChapter returns the full view of a chapter, or ErrNotFound.
func (d *Document) GetChapter(slug string) (ChapterData, error) {
	if !d.chapters.exists(slug) {
		return ChapterData{}, fmt.Errorf("chapter %q: %w", slug, ErrNotFound)
	}
	title, _ := d.meta.getString(metaKey("chapter", slug, "title"))
	status, ok := d.meta.getString(metaKey("chapter", slug, "status"))
	if !ok {
		status = "draft"
	}
	data := ChapterData{Slug: slug, Title: title, Status: status, Body: d.textFor(textOwner(treeChapters, slug)).String()}
	if pov, ok := d.meta.getString(metaKey("chapter", slug, "pov")); ok {
		data.POV = &pov
	}
	if syn, ok := d.meta.getString(metaKey("chapter", slug, "synopsis")); ok {
		data.Synopsis = &syn
	}
	if raw, ok := d.meta.get(metaKey("chapter", slug, "targetWords")); ok {
		var n uint32
		if json.Unmarshal(raw, &n) == nil {
			data.TargetWords = &n
		}
	}
	return data, nil
}

// UpdateChapterMeta applies a partial metadata update.
func (d *Document) UpdateChapterMeta(slug string, u ChapterMetaUpdate) error {
	if !d.chapters.exists(slug) {
		return fmt.Errorf("chapter %q: %w", slug, ErrNotFound)
	}
	if u.Title != nil {
		d.emit(opMetaSet, metaSetPayload{Key: metaKey("chapter", slug, "title"), Value: jsonRaw(*u.Title)})
	}
	if u.Status != nil {
		d.emit(opMetaSet, metaSetPayload{Key: metaKey("chapter", slug, "status"), Value: jsonRaw(*u.Status)})
	}
	applyOptionalString(d, metaKey("chapter", slug, "pov"), u.POV)
	applyOptionalString(d, metaKey("chapter", slug, "synopsis"), u.Synopsis)
	if u.TargetWords != nil {
		if u.TargetWords.Value == nil {
			d.emit(opMetaClear, metaClearPayload{Key: metaKey("chapter", slug, "targetWords")})
		} else {
			d.emit(opMetaSet, metaSetPayload{Key: metaKey("chapter", slug, "targetWords"), Value: jsonRaw(*u.TargetWords.Value)})
		}
	}
	return nil
}

func applyOptionalString(d *Document, key string, opt *optionalString) {
	if opt == nil {
		return
	}
	if opt.Value == nil {
		d.emit(opMetaClear, metaClearPayload{Key: key})
		return
	}
	d.emit(opMetaSet, metaSetPayload{Key: key, Value: jsonRaw(*opt.Value)})
}

func applyOptionalFloat(d *Document, key string, opt *optionalFloat) {
	if opt == nil {
		return
	}
	if opt.Value == nil {
		d.emit(opMetaClear, metaClearPayload{Key: key})
		return
	}
	d.emit(opMetaSet, metaSetPayload{Key: key, Value: jsonRaw(*opt.Value)})
}

// DeleteChapter removes a chapter node from the tree.
func (d *Document) DeleteChapter(slug string) error {
	if !d.chapters.exists(slug) {
		return fmt.Errorf("chapter %q: %w", slug, ErrNotFound)
	}
	d.emit(opNodeDelete, nodePayload{Tree: treeChapters, ID: slug})
	return nil
}

// ReorderChapter repositions slug among root chapters.
func (d *Document) ReorderChapter(slug string, newIndex int) error {
	return d.reorderNode(d.chapters, slug, newIndex)
}

func (d *Document) reorderNode(reg *nodeRegistry, id string, newIndex int) error {
	if !reg.exists(id) {
		return fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	siblings := reg.children("")
	filtered := siblings[:0:0]
	for _, s := range siblings {
		if s != id {
			filtered = append(filtered, s)
		}
	}

	var lo, hi string
	switch {
	case newIndex <= 0:
		lo = ""
		if len(filtered) > 0 {
			hi = reg.nodes[filtered[0]].FracKey
		}
	case newIndex >= len(filtered):
		if len(filtered) > 0 {
			lo = reg.nodes[filtered[len(filtered)-1]].FracKey
		}
		hi = ""
	default:
		lo = reg.nodes[filtered[newIndex-1]].FracKey
		hi = reg.nodes[filtered[newIndex]].FracKey
	}

	frac := keyBetween(lo, hi)
	tree := treeChapters
	if reg == d.notes {
		tree = treeNotes
	}
	d.emit(opNodeMove, nodePayload{Tree: tree, ID: id, ParentID: "", FracKey: frac})
	return nil
}

// ListChapters returns root chapters in tree order.
func (d *Document) ListChapters() []ChapterSummary {
	ids := d.chapters.children("")
	out := make([]ChapterSummary, 0, len(ids))
	for _, id := range ids {
		title, _ := d.meta.getString(metaKey("chapter", id, "title"))
		status, ok := d.meta.getString(metaKey("chapter", id, "status"))
		if !ok {
			status = "draft"
		}
		out = append(out, ChapterSummary{Slug: id, Title: title, Status: status})
	}
	return out
}

// InsertChapterText inserts text into a chapter body at a Unicode
// scalar offset.
func (d *Document) InsertChapterText(slug string, pos int, text string) error {
	if !d.chapters.exists(slug) {
		return fmt.Errorf("chapter %q: %w", slug, ErrNotFound)
	}
	d.insertText(textOwner(treeChapters, slug), pos, text)
	return nil
}

// DeleteChapterText deletes text from a chapter body.
func (d *Document) DeleteChapterText(slug string, pos, length int) error {
	if !d.chapters.exists(slug) {
		return fmt.Errorf("chapter %q: %w", slug, ErrNotFound)
	}
	d.deleteText(textOwner(treeChapters, slug), pos, length)
	return nil
}

func (d *Document) insertText(owner string, pos int, text string) {
	origin, hasOrigin := d.textFor(owner).originAt(pos)
	for i, r := range []rune(text) {
		id := d.nextID()
		payload := textInsertPayload{Owner: owner, ElemID: id, Rune: r}
		if i == 0 {
			payload.Origin, payload.HasOrigin = origin, hasOrigin
		} else {
			payload.Origin, payload.HasOrigin = d.lastInsertedID, true
		}
		d.apply(encodeOp(id, opTextInsert, payload))
		d.lastInsertedID = id
	}
}

func (d *Document) deleteText(owner string, pos, length int) {
	for _, elemID := range d.textFor(owner).idsInRange(pos, length) {
		d.emit(opTextDelete, textDeletePayload{Owner: owner, ElemID: elemID})
	}
}

// ── Note surface ─────────────────────────────────────────────────────

// CreateNote creates a note and returns its generated slug.
func (d *Document) CreateNote(title string) string {
	slug := slugify(title) + "-" + shortSuffix(uuid.New())
	frac := keyBetween(d.lastSiblingKey(d.notes, ""), "")
	d.emit(opNodeCreate, nodePayload{Tree: treeNotes, ID: slug, ParentID: "", FracKey: frac})
	d.emit(opMetaSet, metaSetPayload{Key: metaKey("note", slug, "title"), Value: jsonRaw(title)})
	return slug
}

// GetNote returns the full view of a note, or ErrNotFound.
func (d *Document) GetNote(slug string) (NoteData, error) {
	if !d.notes.exists(slug) {
		return NoteData{}, fmt.Errorf("note %q: %w", slug, ErrNotFound)
	}
	title, _ := d.meta.getString(metaKey("note", slug, "title"))
	data := NoteData{Slug: slug, Title: title, Body: d.textFor(textOwner(treeNotes, slug)).String()}
	if color, ok := d.meta.getString(metaKey("note", slug, "color")); ok {
		data.Color = &color
	}
	if label, ok := d.meta.getString(metaKey("note", slug, "label")); ok {
		data.Label = &label
	}
	if raw, ok := d.meta.get(metaKey("note", slug, "positionX")); ok {
		var f float64
		if json.Unmarshal(raw, &f) == nil {
			data.PositionX = &f
		}
	}
	if raw, ok := d.meta.get(metaKey("note", slug, "positionY")); ok {
		var f float64
		if json.Unmarshal(raw, &f) == nil {
			data.PositionY = &f
		}
	}
	return data, nil
}

// UpdateNoteMeta applies a partial metadata update to a note.
func (d *Document) UpdateNoteMeta(slug string, u NoteMetaUpdate) error {
	if !d.notes.exists(slug) {
		return fmt.Errorf("note %q: %w", slug, ErrNotFound)
	}
	if u.Title != nil {
		d.emit(opMetaSet, metaSetPayload{Key: metaKey("note", slug, "title"), Value: jsonRaw(*u.Title)})
	}
	applyOptionalString(d, metaKey("note", slug, "color"), u.Color)
	applyOptionalString(d, metaKey("note", slug, "label"), u.Label)
	applyOptionalFloat(d, metaKey("note", slug, "positionX"), u.PositionX)
	applyOptionalFloat(d, metaKey("note", slug, "positionY"), u.PositionY)
	return nil
}

// DeleteNote removes a note node from the tree.
func (d *Document) DeleteNote(slug string) error {
	if !d.notes.exists(slug) {
		return fmt.Errorf("note %q: %w", slug, ErrNotFound)
	}
	d.emit(opNodeDelete, nodePayload{Tree: treeNotes, ID: slug})
	return nil
}

// ListNotes returns all live notes (root order).
func (d *Document) ListNotes() []NoteSummary {
	ids := d.notes.children("")
	out := make([]NoteSummary, 0, len(ids))
	for _, id := range ids {
		title, _ := d.meta.getString(metaKey("note", id, "title"))
		s := NoteSummary{Slug: id, Title: title}
		if color, ok := d.meta.getString(metaKey("note", id, "color")); ok {
			s.Color = &color
		}
		out = append(out, s)
	}
	return out
}

// InsertNoteText inserts text into a note body.
func (d *Document) InsertNoteText(slug string, pos int, text string) error {
	if !d.notes.exists(slug) {
		return fmt.Errorf("note %q: %w", slug, ErrNotFound)
	}
	d.insertText(textOwner(treeNotes, slug), pos, text)
	return nil
}

// DeleteNoteText deletes text from a note body.
func (d *Document) DeleteNoteText(slug string, pos, length int) error {
	if !d.notes.exists(slug) {
		return fmt.Errorf("note %q: %w", slug, ErrNotFound)
	}
	d.deleteText(textOwner(treeNotes, slug), pos, length)
	return nil
}

// ── Entity surface ───────────────────────────────────────────────────

// CreateEntity creates a new entity under schema/slug. Only scalar,
// boolean, and array-of-scalar fields are kept; nested objects are
// dropped.
func (d *Document) CreateEntity(schema, slug, title string, fields map[string]any) error {
	key := entityKey(schema, slug)
	if d.entityEx.exists(key) {
		return fmt.Errorf("entity %q: %w", key, ErrAlreadyExists)
	}
	d.emit(opEntityMake, entityPayload{Schema: schema, Slug: slug})
	d.emit(opMetaSet, metaSetPayload{Key: entityFieldKey(schema, slug, "title"), Value: jsonRaw(title)})
	for field, v := range fields {
		if raw, ok := encodableEntityField(v); ok {
			d.emit(opMetaSet, metaSetPayload{Key: entityFieldKey(schema, slug, field), Value: raw})
		}
	}
	return nil
}

func encodableEntityField(v any) (json.RawMessage, bool) {
	switch v.(type) {
	case string, float64, int, int64, bool:
		return jsonRaw(v), true
	case []any:
		for _, elem := range v.([]any) {
			switch elem.(type) {
			case string, float64, int, int64, bool, nil:
			default:
				return nil, false
			}
		}
		return jsonRaw(v), true
	case map[string]any:
		return nil, false
	default:
		return nil, false
	}
}

// GetEntity returns schema/slug, or ErrNotFound.
func (d *Document) GetEntity(schema, slug string) (EntityData, error) {
	key := entityKey(schema, slug)
	if !d.entityEx.exists(key) {
		return EntityData{}, fmt.Errorf("entity %q: %w", key, ErrNotFound)
	}
	title, _ := d.meta.getString(entityFieldKey(schema, slug, "title"))
	fields := make(map[string]any)
	prefix := schema + "\x00" + slug + "\x00"
	for k, fv := range d.meta.fields {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		field := strings.TrimPrefix(k, prefix)
		if field == "title" {
			continue
		}
		var v any
		if json.Unmarshal(fv.Value, &v) == nil {
			fields[field] = v
		}
	}
	return EntityData{Slug: slug, Title: title, SchemaType: schema, Fields: fields}, nil
}

// UpdateEntity partially updates an entity's fields: null clears,
// arrays fully replace, scalars set.
func (d *Document) UpdateEntity(schema, slug string, updates map[string]any) error {
	key := entityKey(schema, slug)
	if !d.entityEx.exists(key) {
		return fmt.Errorf("entity %q: %w", key, ErrNotFound)
	}
	for field, v := range updates {
		fk := entityFieldKey(schema, slug, field)
		if v == nil {
			d.emit(opMetaClear, metaClearPayload{Key: fk})
			continue
		}
		if raw, ok := encodableEntityField(v); ok {
			d.emit(opMetaSet, metaSetPayload{Key: fk, Value: raw})
		}
	}
	return nil
}

// DeleteEntity removes an entity.
func (d *Document) DeleteEntity(schema, slug string) error {
	key := entityKey(schema, slug)
	if !d.entityEx.exists(key) {
		return fmt.Errorf("entity %q: %w", key, ErrNotFound)
	}
	d.emit(opEntityDrop, entityPayload{Schema: schema, Slug: slug})
	return nil
}

// ListEntities returns all live entities for a schema.
func (d *Document) ListEntities(schema string) []EntityData {
	var out []EntityData
	prefix := schema + "\x00"
	for _, key := range d.entityEx.keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		slug := strings.TrimPrefix(key, prefix)
		if e, err := d.GetEntity(schema, slug); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// ListEntitySchemas returns every schema name with at least one live entity.
func (d *Document) ListEntitySchemas() []string {
	seen := make(map[string]bool)
	for _, key := range d.entityEx.keys() {
		schema := strings.SplitN(key, "\x00", 2)[0]
		seen[schema] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	return out
}

// ── Session surface ──────────────────────────────────────────────────

// ImportSession stores an opaque session record under id.
func (d *Document) ImportSession(id string, data SessionData) {
	data.ID = id
	d.emit(opSessionSet, sessionSetPayload{ID: id, Value: jsonRaw(data)})
}

// GetSession returns a session record, or ErrNotFound.
func (d *Document) GetSession(id string) (SessionData, error) {
	raw, ok := d.sessions.get(id)
	if !ok {
		return SessionData{}, fmt.Errorf("session %q: %w", id, ErrNotFound)
	}
	var s SessionData
	_ = json.Unmarshal(raw, &s)
	return s, nil
}

// ListSessionIds returns all session ids ever imported, in first-seen order.
func (d *Document) ListSessionIds() []string {
	out := make([]string, 0, len(d.sessionOrder))
	listed := make(map[string]bool, len(d.sessionOrder))
	for _, id := range d.sessionOrder {
		if listed[id] {
			continue
		}
		listed[id] = true
		if _, ok := d.sessions.get(id); ok {
			out = append(out, id)
		}
	}
	return out
}
