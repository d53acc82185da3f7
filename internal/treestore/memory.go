package treestore

import (
	"context"
	"sync"
)

// MemoryStore is an in-process tree store. It is the default backend for
// tests and local development and the reference for the Store contract.
type MemoryStore struct {
	mu       sync.RWMutex
	root     map[string]any
	notifier *notifier
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{root: make(map[string]any)}
	s.notifier = newNotifier(s.ReadOnce)
	return s
}

func (s *MemoryStore) ReadOnce(ctx context.Context, path string) (any, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, ErrEmptyPath
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := valueAt(map[string]any(s.root), segs)
	if !ok || value == nil {
		return nil, ErrPathNotFound
	}
	return deepCopy(value), nil
}

func (s *MemoryStore) Write(ctx context.Context, path string, value any) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return ErrEmptyPath
	}

	s.mu.Lock()
	setAt(s.root, segs, deepCopy(value))
	s.mu.Unlock()

	s.notifier.publish(ctx, path)
	return nil
}

func (s *MemoryStore) Observe(ctx context.Context, path string) (<-chan any, error) {
	if len(splitPath(path)) == 0 {
		return nil, ErrEmptyPath
	}
	return s.notifier.subscribe(ctx, path), nil
}
