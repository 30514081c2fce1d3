package storage

import (
	"fmt"

	"go.etcd.io/bbolt"
)

var bucketMemo = []byte("memo")

// Bolt is a bbolt-backed store: one file, one bucket, zstd-compressed
// records keyed by the digest of the composite cache key.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens or creates a bolt store at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMemo)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create memo bucket: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Get reads and verifies the record for key.
func (s *Bolt) Get(key string) (Entry, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMemo).Get(hashKey(key))
		if data != nil {
			raw = make([]byte, len(data))
			copy(raw, data)
		}
		return nil
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("bolt get: %w", err)
	}
	if raw == nil {
		return Entry{}, false, nil
	}
	return decodeRecord(key, raw)
}

// Set writes the record for key, replacing any previous one.
func (s *Bolt) Set(key string, e Entry) error {
	data, err := encodeRecord(key, e)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMemo).Put(hashKey(key), data)
	})
	if err != nil {
		return fmt.Errorf("bolt set: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Bolt) Close() error {
	return s.db.Close()
}
