package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const imagesDir = "images"

// FilesystemStore keeps blobs under a root directory and serves them from a
// public base URL (the app server mounts the directory as static content).
type FilesystemStore struct {
	root    string
	baseURL string
	logger  *zap.Logger
}

func NewFilesystemStore(root, baseURL string, logger *zap.Logger) (*FilesystemStore, error) {
	if err := os.MkdirAll(filepath.Join(root, imagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FilesystemStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}, nil
}

func (s *FilesystemStore) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	fileName = filepath.Base(fileName)
	target := filepath.Join(s.root, imagesDir, fileName)

	// Write-then-rename so readers never see a partial blob.
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.logger.Error("blob upload failed", zap.String("file", fileName), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		s.logger.Error("blob upload failed", zap.String("file", fileName), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	url := s.urlFor(imagesDir + "/" + fileName)
	s.logger.Info("blob uploaded", zap.String("file", fileName), zap.String("url", url))
	return url, nil
}

func (s *FilesystemStore) DownloadURL(ctx context.Context, path string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + path))[1:]
	if _, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(clean))); err != nil {
		return "", fmt.Errorf("%w: %s", ErrURLUnavailable, path)
	}
	return s.urlFor(clean), nil
}

func (s *FilesystemStore) urlFor(path string) string {
	return s.baseURL + "/" + path
}
