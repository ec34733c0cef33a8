package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustOpen(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(t.TempDir())
	require.NoError(t, err)
	return q
}

func entry(projectID, deviceID uuid.UUID, seq uint64) Entry {
	return Entry{
		ProjectID: projectID,
		DeviceID:  deviceID,
		Sequence:  seq,
		Envelope:  json.RawMessage(`{"nonce":"x"}`),
	}
}

func TestDrainReturnsAscendingSequenceRegardlessOfEnqueueOrder(t *testing.T) {
	q := mustOpen(t)
	projectID, deviceID := uuid.New(), uuid.New()

	for _, seq := range []uint64{5, 1, 3, 2, 4} {
		require.NoError(t, q.Enqueue(entry(projectID, deviceID, seq)))
	}

	out, err := q.Drain()
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i, e := range out {
		assert.Equal(t, uint64(i+1), e.Sequence)
	}
}

func TestDrainDoesNotRemove(t *testing.T) {
	q := mustOpen(t)
	require.NoError(t, q.Enqueue(entry(uuid.New(), uuid.New(), 1)))

	_, err := q.Drain()
	require.NoError(t, err)

	n, err := q.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRemoveDeletesOneEntry(t *testing.T) {
	q := mustOpen(t)
	projectID, deviceID := uuid.New(), uuid.New()
	require.NoError(t, q.Enqueue(entry(projectID, deviceID, 1)))
	require.NoError(t, q.Enqueue(entry(projectID, deviceID, 2)))

	require.NoError(t, q.Remove(1))

	out, err := q.Drain()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, uint64(2), out[0].Sequence)
}

func TestRemoveNonExistentIsNoOp(t *testing.T) {
	q := mustOpen(t)
	assert.NoError(t, q.Remove(999))
}

func TestClearEmptiesQueue(t *testing.T) {
	q := mustOpen(t)
	projectID, deviceID := uuid.New(), uuid.New()
	for i := uint64(0); i < 3; i++ {
		require.NoError(t, q.Enqueue(entry(projectID, deviceID, i)))
	}

	require.NoError(t, q.Clear())

	empty, err := q.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestNeedsSnapshotOnlyPastThreshold(t *testing.T) {
	q := mustOpen(t)
	projectID, deviceID := uuid.New(), uuid.New()
	for i := uint64(0); i < SnapshotThreshold; i++ {
		require.NoError(t, q.Enqueue(entry(projectID, deviceID, i)))
	}

	needs, err := q.NeedsSnapshot()
	require.NoError(t, err)
	assert.False(t, needs)

	require.NoError(t, q.Enqueue(entry(projectID, deviceID, SnapshotThreshold)))

	needs, err = q.NeedsSnapshot()
	require.NoError(t, err)
	assert.True(t, needs)
}

func TestNonJSONFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	q, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, q.Enqueue(entry(uuid.New(), uuid.New(), 1)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not json"), 0600))

	out, err := q.Drain()
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
