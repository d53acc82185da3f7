package treestore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryReadWriteNested(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.ReadOnce(ctx, "missing"); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("ReadOnce on missing path: got %v, want ErrPathNotFound", err)
	}

	if err := store.Write(ctx, "a-b/conversations", []any{map[string]any{"id": "c1"}}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// The nested write must be visible through the parent node.
	parent, err := store.ReadOnce(ctx, "a-b")
	if err != nil {
		t.Fatalf("ReadOnce parent failed: %v", err)
	}
	node, ok := parent.(map[string]any)
	if !ok {
		t.Fatalf("parent node is %T, want map", parent)
	}
	list, ok := node["conversations"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("conversations = %v", node["conversations"])
	}

	child, err := store.ReadOnce(ctx, "a-b/conversations")
	if err != nil {
		t.Fatalf("ReadOnce child failed: %v", err)
	}
	if entries := child.([]any); len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestMemoryWriteOverwritesSubtree(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	mustWrite(t, store, "u", map[string]any{"first_name": "A", "last_name": "B"})
	mustWrite(t, store, "u/conversations", []any{map[string]any{"id": "c1"}})
	mustWrite(t, store, "u/conversations", []any{map[string]any{"id": "c2"}})

	value, err := store.ReadOnce(ctx, "u/conversations")
	if err != nil {
		t.Fatalf("ReadOnce failed: %v", err)
	}
	list := value.([]any)
	if len(list) != 1 || list[0].(map[string]any)["id"] != "c2" {
		t.Fatalf("subtree write did not overwrite: %v", list)
	}

	// Sibling fields survive a nested overwrite.
	parent, err := store.ReadOnce(ctx, "u")
	if err != nil {
		t.Fatalf("ReadOnce parent failed: %v", err)
	}
	if parent.(map[string]any)["first_name"] != "A" {
		t.Fatalf("sibling field lost: %v", parent)
	}
}

func TestMemoryReadIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	mustWrite(t, store, "u", map[string]any{"first_name": "A"})

	value, _ := store.ReadOnce(ctx, "u")
	value.(map[string]any)["first_name"] = "tampered"

	again, _ := store.ReadOnce(ctx, "u")
	if again.(map[string]any)["first_name"] != "A" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestMemoryObserveDeliversInitialAndUpdates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewMemoryStore()

	mustWrite(t, store, "u/conversations", []any{map[string]any{"id": "c1"}})

	ch, err := store.Observe(ctx, "u/conversations")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	first := recv(t, ch)
	if len(first.([]any)) != 1 {
		t.Fatalf("initial snapshot = %v", first)
	}

	mustWrite(t, store, "u/conversations", []any{map[string]any{"id": "c1"}, map[string]any{"id": "c2"}})
	second := recv(t, ch)
	if len(second.([]any)) != 2 {
		t.Fatalf("updated snapshot = %v", second)
	}
}

func TestMemoryObserveSeesAncestorWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewMemoryStore()

	ch, err := store.Observe(ctx, "u/conversations")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	// Writing the whole user node must wake observers of its children.
	mustWrite(t, store, "u", map[string]any{
		"first_name":    "A",
		"conversations": []any{map[string]any{"id": "c1"}},
	})

	snap := recv(t, ch)
	if len(snap.([]any)) != 1 {
		t.Fatalf("snapshot after ancestor write = %v", snap)
	}
}

func TestMemoryObserveClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore()

	ch, err := store.Observe(ctx, "u")
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	cancel()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel did not close after cancel")
		}
	}
}

func mustWrite(t *testing.T, store Store, path string, value any) {
	t.Helper()
	if err := store.Write(context.Background(), path, value); err != nil {
		t.Fatalf("Write %s failed: %v", path, err)
	}
}

func recv(t *testing.T, ch <-chan any) any {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}
