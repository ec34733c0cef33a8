package crdt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChapterLifecycle(t *testing.T) {
	d := New(uuid.New(), 1)

	slug := d.CreateChapter("The Long Road")
	ch, err := d.GetChapter(slug)
	require.NoError(t, err)
	assert.Equal(t, "The Long Road", ch.Title)
	assert.Equal(t, "draft", ch.Status)
	assert.Equal(t, "", ch.Body)

	require.NoError(t, d.InsertChapterText(slug, 0, "It was a dark night."))
	ch, err = d.GetChapter(slug)
	require.NoError(t, err)
	assert.Equal(t, "It was a dark night.", ch.Body)

	require.NoError(t, d.DeleteChapterText(slug, 0, 3))
	ch, _ = d.GetChapter(slug)
	assert.Equal(t, " was a dark night.", ch.Body)

	status := "active"
	require.NoError(t, d.UpdateChapterMeta(slug, ChapterMetaUpdate{Status: &status}))
	ch, _ = d.GetChapter(slug)
	assert.Equal(t, "active", ch.Status)

	require.NoError(t, d.DeleteChapter(slug))
	_, err = d.GetChapter(slug)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListChaptersOrderAndReorder(t *testing.T) {
	d := New(uuid.New(), 1)
	a := d.CreateChapter("Alpha")
	b := d.CreateChapter("Beta")
	c := d.CreateChapter("Gamma")

	order := func() []string {
		var out []string
		for _, s := range d.ListChapters() {
			out = append(out, s.Slug)
		}
		return out
	}
	assert.Equal(t, []string{a, b, c}, order())

	require.NoError(t, d.ReorderChapter(c, 0))
	assert.Equal(t, []string{c, a, b}, order())

	require.NoError(t, d.ReorderChapter(a, 10))
	assert.Equal(t, []string{c, b, a}, order())
}

func TestEntityCRUDAndAlreadyExists(t *testing.T) {
	d := New(uuid.New(), 1)
	err := d.CreateEntity("character", "elenya", "Elenya", map[string]any{
		"role": "protagonist",
		"age":  float64(27),
	})
	require.NoError(t, err)

	err = d.CreateEntity("character", "elenya", "Elenya Again", nil)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	e, err := d.GetEntity("character", "elenya")
	require.NoError(t, err)
	assert.Equal(t, "Elenya", e.Title)
	assert.Equal(t, "protagonist", e.Fields["role"])

	require.NoError(t, d.UpdateEntity("character", "elenya", map[string]any{"role": nil, "age": float64(28)}))
	e, _ = d.GetEntity("character", "elenya")
	_, hasRole := e.Fields["role"]
	assert.False(t, hasRole)
	assert.Equal(t, float64(28), e.Fields["age"])

	require.NoError(t, d.DeleteEntity("character", "elenya"))
	_, err = d.GetEntity("character", "elenya")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionImportAndList(t *testing.T) {
	d := New(uuid.New(), 1)
	d.ImportSession("s1", SessionData{Start: "2026-01-01T09:00:00Z", WordsWritten: 500, ChapterSlug: "alpha"})
	d.ImportSession("s2", SessionData{Start: "2026-01-02T09:00:00Z", WordsWritten: 700, ChapterSlug: "beta"})

	assert.Equal(t, []string{"s1", "s2"}, d.ListSessionIds())

	got, err := d.GetSession("s1")
	require.NoError(t, err)
	assert.Equal(t, uint32(500), got.WordsWritten)
}

func TestExportImportSnapshotRoundTrip(t *testing.T) {
	projectID := uuid.New()
	d1 := New(projectID, 1)
	slug := d1.CreateChapter("Chapter One")
	require.NoError(t, d1.InsertChapterText(slug, 0, "hello world"))

	snap, err := d1.ExportSnapshot()
	require.NoError(t, err)

	d2 := New(projectID, 2)
	require.NoError(t, d2.ImportUpdates(snap))

	ch, err := d2.GetChapter(slug)
	require.NoError(t, err)
	assert.Equal(t, "hello world", ch.Body)
}

func TestConcurrentEditsConverge(t *testing.T) {
	projectID := uuid.New()
	a := New(projectID, 1)
	slug := a.CreateChapter("Shared")

	snap, err := a.ExportSnapshot()
	require.NoError(t, err)
	b := New(projectID, 2)
	require.NoError(t, b.ImportUpdates(snap))

	require.NoError(t, a.InsertChapterText(slug, 0, "AAA"))
	require.NoError(t, b.InsertChapterText(slug, 0, "BBB"))

	updatesA, err := a.ExportUpdates(b.VersionVector())
	require.NoError(t, err)
	updatesB, err := b.ExportUpdates(a.VersionVector())
	require.NoError(t, err)

	require.NoError(t, a.ImportUpdates(updatesB))
	require.NoError(t, b.ImportUpdates(updatesA))

	chA, _ := a.GetChapter(slug)
	chB, _ := b.GetChapter(slug)
	assert.Equal(t, chA.Body, chB.Body)
	assert.Contains(t, chA.Body, "AAA")
	assert.Contains(t, chA.Body, "BBB")
}

func TestImportUpdatesIsIdempotent(t *testing.T) {
	projectID := uuid.New()
	a := New(projectID, 1)
	slug := a.CreateChapter("Idempotent")
	require.NoError(t, a.InsertChapterText(slug, 0, "text"))

	b := New(projectID, 2)
	updates, err := a.ExportUpdates(nil)
	require.NoError(t, err)

	require.NoError(t, b.ImportUpdates(updates))
	require.NoError(t, b.ImportUpdates(updates)) // replay

	ch, err := b.GetChapter(slug)
	require.NoError(t, err)
	assert.Equal(t, "text", ch.Body)
}
