// Package treestore is the client for the hierarchical key-value store the
// sync engine runs against. Values are addressed by slash-separated paths
// and are JSON-shaped: map[string]any, []any, or scalars. A write replaces
// the whole subtree at its path.
package treestore

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrPathNotFound = errors.New("tree store: path not found")
	ErrEmptyPath    = errors.New("tree store: path cannot be empty")
)

// Store is the keyed tree store contract. ReadOnce is a single fetch,
// Observe delivers the current value and then every subsequent change until
// the context is done, Write overwrites the subtree at path.
type Store interface {
	ReadOnce(ctx context.Context, path string) (any, error)
	Observe(ctx context.Context, path string) (<-chan any, error)
	Write(ctx context.Context, path string, value any) error
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// valueAt walks the tree from node following segs. The second return is
// false when any segment is missing or a non-map is traversed.
func valueAt(node any, segs []string) (any, bool) {
	cur := node
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// setAt replaces the subtree at segs under root, creating intermediate map
// nodes as needed. Intermediate non-map values are overwritten.
func setAt(root map[string]any, segs []string, value any) {
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// deepCopy clones JSON-shaped values so callers can never alias the store's
// internal state.
func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = deepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	default:
		return v
	}
}

// related reports whether a write at changed must be visible to an observer
// of path: true when either path is an ancestor of the other (segment-wise).
func related(path, changed []string) bool {
	n := len(path)
	if len(changed) < n {
		n = len(changed)
	}
	for i := 0; i < n; i++ {
		if path[i] != changed[i] {
			return false
		}
	}
	return true
}
