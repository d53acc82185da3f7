package treestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const nodesBucket = "nodes"

// BoltStore persists the tree in a single bbolt file. Each top-level key of
// the tree is one bucket entry holding its subtree as JSON. Observation is
// in-process only: it reflects writes made through this store instance.
type BoltStore struct {
	db       *bolt.DB
	notifier *notifier
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(nodesBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bolt store: %w", err)
	}

	s := &BoltStore{db: db}
	s.notifier = newNotifier(s.ReadOnce)
	return s, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) ReadOnce(ctx context.Context, path string) (any, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, ErrEmptyPath
	}

	var top any
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(nodesBucket)).Get([]byte(segs[0]))
		if raw == nil {
			return ErrPathNotFound
		}
		return json.Unmarshal(raw, &top)
	})
	if err != nil {
		return nil, err
	}

	value, ok := valueAt(top, segs[1:])
	if !ok || value == nil {
		return nil, ErrPathNotFound
	}
	return value, nil
}

func (s *BoltStore) Write(ctx context.Context, path string, value any) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return ErrEmptyPath
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(nodesBucket))

		next := value
		if len(segs) > 1 {
			var top any
			if raw := bucket.Get([]byte(segs[0])); raw != nil {
				if err := json.Unmarshal(raw, &top); err != nil {
					// Malformed node: replace it rather than fail the write.
					top = nil
				}
			}
			root, ok := top.(map[string]any)
			if !ok {
				root = make(map[string]any)
			}
			setAt(root, segs[1:], value)
			next = root
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode node %q: %w", segs[0], err)
		}
		return bucket.Put([]byte(segs[0]), raw)
	})
	if err != nil {
		return err
	}

	s.notifier.publish(ctx, path)
	return nil
}

func (s *BoltStore) Observe(ctx context.Context, path string) (<-chan any, error) {
	if len(splitPath(path)) == 0 {
		return nil, ErrEmptyPath
	}
	return s.notifier.subscribe(ctx, path), nil
}
