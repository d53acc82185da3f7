package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestFilesystemUploadAndResolve(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewFilesystemStore(root, "http://localhost:8080/", zap.NewNop())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	url, err := store.Upload(ctx, []byte("png-bytes"), "a-b-example-com_profile_picture.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	want := "http://localhost:8080/images/a-b-example-com_profile_picture.png"
	if url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}

	data, err := os.ReadFile(filepath.Join(root, "images", "a-b-example-com_profile_picture.png"))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("stored blob = %q, %v", data, err)
	}

	resolved, err := store.DownloadURL(ctx, "images/a-b-example-com_profile_picture.png")
	if err != nil || resolved != want {
		t.Fatalf("DownloadURL = %q, %v", resolved, err)
	}
}

func TestFilesystemDownloadURLMissing(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir(), "http://localhost:8080", zap.NewNop())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	_, err = store.DownloadURL(context.Background(), "images/nope.png")
	if !errors.Is(err, ErrURLUnavailable) {
		t.Fatalf("got %v, want ErrURLUnavailable", err)
	}
}

func TestFilesystemUploadStripsPathComponents(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root, "http://localhost:8080", zap.NewNop())
	if err != nil {
		t.Fatalf("NewFilesystemStore failed: %v", err)
	}

	if _, err := store.Upload(context.Background(), []byte("x"), "../../escape.png"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "images", "escape.png")); err != nil {
		t.Fatalf("blob not confined to images dir: %v", err)
	}
}
