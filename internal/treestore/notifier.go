package treestore

import (
	"context"
	"sync"
)

// notifier fans writes out to path observers. Each observer channel has a
// buffer of one and is coalescing: a slow consumer sees the newest snapshot,
// not every intermediate one.
type notifier struct {
	mu   sync.Mutex
	subs map[*subscription]struct{}

	// read fetches the current value at a path so each observer can be
	// handed a snapshot of its own subtree, whatever path the write hit.
	read func(ctx context.Context, path string) (any, error)
}

type subscription struct {
	path []string
	raw  string
	ch   chan any
}

func newNotifier(read func(ctx context.Context, path string) (any, error)) *notifier {
	return &notifier{
		subs: make(map[*subscription]struct{}),
		read: read,
	}
}

// subscribe registers an observer for path and seeds it with the current
// value when one exists. The returned channel closes when ctx is done.
func (n *notifier) subscribe(ctx context.Context, path string) <-chan any {
	sub := &subscription{
		path: splitPath(path),
		raw:  path,
		ch:   make(chan any, 1),
	}

	n.mu.Lock()
	n.subs[sub] = struct{}{}
	if value, err := n.read(ctx, path); err == nil {
		offer(sub.ch, value)
	}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, sub)
		close(sub.ch)
		n.mu.Unlock()
	}()

	return sub.ch
}

// publish redelivers snapshots to every observer whose path overlaps the
// written path.
func (n *notifier) publish(ctx context.Context, changedPath string) {
	changed := splitPath(changedPath)

	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs {
		if !related(sub.path, changed) {
			continue
		}
		value, err := n.read(ctx, sub.raw)
		if err != nil {
			continue
		}
		offer(sub.ch, value)
	}
}

// offer is a non-blocking coalescing send: if the buffer is full, the stale
// snapshot is dropped in favor of the new one.
func offer(ch chan any, v any) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
