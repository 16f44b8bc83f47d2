package snapshot

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"vindex/jsonx"
	"vindex/ledger"
	"vindex/logx"
)

var snapshotBucket = []byte("snapshots")

// Store persists chain exports to a bbolt file, keyed by chain height. It is
// the durability collaborator: the ledger engine itself never touches disk,
// so nothing here runs inside the commit path.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open snapshot store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create snapshot bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Save stores the export under its chain height, replacing any snapshot
// previously taken at the same height.
func (s *Store) Save(export *ledger.ChainExport) error {
	data, err := jsonx.Marshal(export)
	if err != nil {
		return fmt.Errorf("could not serialize snapshot: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put(heightKey(export.Height), data)
	})
	if err != nil {
		return fmt.Errorf("could not persist snapshot: %w", err)
	}
	logx.Info("SNAPSHOT", fmt.Sprintf("Persisted snapshot at height %d (%d bytes)", export.Height, len(data)))
	return nil
}

// Latest returns the snapshot with the greatest height, or nil when the
// store is empty.
func (s *Store) Latest() (*ledger.ChainExport, error) {
	var export *ledger.ChainExport
	err := s.db.View(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(snapshotBucket).Cursor()
		_, data := cursor.Last()
		if data == nil {
			return nil
		}
		export = &ledger.ChainExport{}
		return jsonx.Unmarshal(data, export)
	})
	if err != nil {
		return nil, fmt.Errorf("could not load latest snapshot: %w", err)
	}
	return export, nil
}

// Heights lists the stored snapshot heights in ascending order.
func (s *Store) Heights() ([]uint64, error) {
	heights := make([]uint64, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).ForEach(func(k, _ []byte) error {
			heights = append(heights, binary.BigEndian.Uint64(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return heights, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func heightKey(height uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, height)
	return key
}
