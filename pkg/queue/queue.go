// Package queue persists a client's outbound updates for one
// (project, device) pair while the sync client engine is disconnected.
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SnapshotThreshold is the queue length past which the sync client
// engine should discard the queue and request a fresh snapshot instead
// of draining it (§4.I NeedsSnapshot).
const SnapshotThreshold = 1000

// Entry is one queued outbound update, serialized verbatim as the
// contents of its file.
type Entry struct {
	ProjectID uuid.UUID       `json:"projectId"`
	DeviceID  uuid.UUID       `json:"deviceId"`
	Sequence  uint64          `json:"sequence"`
	Envelope  json.RawMessage `json:"envelope"`
}

// Queue is a directory-backed FIFO of queued updates for one
// client-project pair. Each entry is a separate file named
// "{sequence:010}.json"; lexicographic file order equals sequence
// order, so a directory listing is already in send order.
type Queue struct {
	mu  sync.Mutex
	dir string
}

// Open creates dir if necessary and returns a Queue rooted there.
func Open(dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("queue: create dir %s: %w", dir, err)
	}
	return &Queue{dir: dir}, nil
}

func fileName(sequence uint64) string {
	return fmt.Sprintf("%010d.json", sequence)
}

// Enqueue writes one entry to disk, keyed by its sequence.
func (q *Queue) Enqueue(e Entry) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := filepath.Join(q.dir, fileName(e.Sequence))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("queue: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("queue: rename %s: %w", tmp, err)
	}
	return nil
}

// jsonFiles returns every ".json" entry filename in the queue
// directory, sorted lexicographically (== sequence order, since every
// name is a zero-padded 10-digit sequence). Non-JSON files are
// ignored.
func (q *Queue) jsonFiles() ([]string, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("queue: read dir %s: %w", q.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Len returns the number of queued entries.
func (q *Queue) Len() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	names, err := q.jsonFiles()
	if err != nil {
		return 0, err
	}
	return len(names), nil
}

// IsEmpty reports whether the queue currently holds no entries.
func (q *Queue) IsEmpty() (bool, error) {
	n, err := q.Len()
	return n == 0, err
}

// NeedsSnapshot reports whether the queue has grown past
// SnapshotThreshold, signaling that the caller should discard it in
// favor of a freshly computed snapshot rather than draining it.
func (q *Queue) NeedsSnapshot() (bool, error) {
	n, err := q.Len()
	return n > SnapshotThreshold, err
}

// Drain returns every queued entry in ascending sequence order. It
// does not remove anything from disk; callers remove individual
// entries via Remove once they have been sent successfully.
func (q *Queue) Drain() ([]Entry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	names, err := q.jsonFiles()
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(q.dir, name))
		if err != nil {
			return nil, fmt.Errorf("queue: read %s: %w", name, err)
		}
		var e Entry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("queue: decode %s: %w", name, err)
		}
		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

// Remove deletes the entry for sequence, if present. Removing a
// non-existent sequence is a no-op.
func (q *Queue) Remove(sequence uint64) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	path := filepath.Join(q.dir, fileName(sequence))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("queue: remove %s: %w", path, err)
	}
	return nil
}

// Clear removes every queued entry, for use once a snapshot has
// superseded the whole backlog.
func (q *Queue) Clear() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	names, err := q.jsonFiles()
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(q.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("queue: remove %s: %w", name, err)
		}
	}
	return nil
}
