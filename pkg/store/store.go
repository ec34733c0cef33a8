package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketUpdates   = []byte("updates")
	bucketSnapshots = []byte("snapshots")
)

// StoredUpdate is one persisted encrypted update.
type StoredUpdate struct {
	ProjectID   uuid.UUID       `json:"projectId"`
	DeviceID    uuid.UUID       `json:"deviceId"`
	Sequence    uint64          `json:"sequence"`
	EnvelopeRaw json.RawMessage `json:"envelope"`
}

// StoredSnapshot is the latest persisted snapshot for a project.
type StoredSnapshot struct {
	ProjectID   uuid.UUID       `json:"projectId"`
	SnapshotID  uuid.UUID       `json:"snapshotId"`
	EnvelopeRaw json.RawMessage `json:"envelope"`
}

// Store is the relay's encrypted update log and snapshot table.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the bbolt file under dataDir.
func Open(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, "sakya-relay.db")
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketUpdates, bucketSnapshots} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

func updateKey(projectID, deviceID uuid.UUID, sequence uint64) []byte {
	key := make([]byte, 16+16+8)
	copy(key[0:16], projectID[:])
	copy(key[16:32], deviceID[:])
	binary.BigEndian.PutUint64(key[32:40], sequence)
	return key
}

// StoreUpdate persists one update. Re-storing the same
// (projectId, deviceId, sequence) overwrites with the same content,
// making the call idempotent.
func (s *Store) StoreUpdate(u StoredUpdate) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUpdates)
		return b.Put(updateKey(u.ProjectID, u.DeviceID, u.Sequence), data)
	})
}

// StoreSnapshot atomically replaces the latest snapshot for a project.
func (s *Store) StoreSnapshot(snap StoredSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		return b.Put(snap.ProjectID[:], data)
	})
}

// GetLatestSnapshot returns the project's latest snapshot, or
// (nil, nil) if none has been stored.
func (s *Store) GetLatestSnapshot(projectID uuid.UUID) (*StoredSnapshot, error) {
	var snap *StoredSnapshot
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSnapshots)
		data := b.Get(projectID[:])
		if data == nil {
			return nil
		}
		var s StoredSnapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		snap = &s
		return nil
	})
	return snap, err
}

// GetUpdatesSince returns up to limit updates for projectID with
// sequence strictly greater than sinceSequence, ordered by
// (deviceId, sequence).
func (s *Store) GetUpdatesSince(projectID uuid.UUID, sinceSequence uint64, limit int) ([]StoredUpdate, error) {
	var out []StoredUpdate
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUpdates)
		c := b.Cursor()
		prefix := projectID[:]
		for k, v := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, v = c.Next() {
			var u StoredUpdate
			if err := json.Unmarshal(v, &u); err != nil {
				return err
			}
			if u.Sequence <= sinceSequence {
				continue
			}
			out = append(out, u)
			if len(out) >= limit {
				return nil
			}
		}
		return nil
	})
	return out, err
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}
