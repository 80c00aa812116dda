package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
)

// FilesystemBlobStore keeps attachments under a local directory. The HTTP
// layer serves the same directory under publicBaseURL.
type FilesystemBlobStore struct {
	root          *os.Root
	dir           string
	publicBaseURL string
	logger        *zap.Logger
}

// NewFilesystemBlobStore opens (creating if needed) the attachment directory
func NewFilesystemBlobStore(dir, publicBaseURL string, logger *zap.Logger) (*FilesystemBlobStore, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage directory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilesystemBlobStore{
		root:          root,
		dir:           dir,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// Dir returns the directory the blobs live in
func (s *FilesystemBlobStore) Dir() string {
	return s.dir
}

// Upload writes the blob under key and returns its public URL. Keys are
// slash-separated and may not leave the storage directory.
func (s *FilesystemBlobStore) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	if dir := path.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create blob directory: %w", err)
		}
	}

	f, err := s.root.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}

	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && size >= 0 && written != size {
		err = fmt.Errorf("short write: %d of %d bytes", written, size)
	}
	if err != nil {
		_ = s.root.Remove(name)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	s.logger.Debug("Blob stored",
		zap.String("key", name),
		zap.Int64("size", written),
		zap.String("content_type", contentType))

	return s.PublicURL(name), nil
}

// Remove deletes the given keys. Missing files are not an error.
func (s *FilesystemBlobStore) Remove(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		name, err := cleanKey(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := s.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// PublicURL returns the URL under which a blob is served
func (s *FilesystemBlobStore) PublicURL(key string) string {
	return s.publicBaseURL + "/" + escapePath(key)
}

// Close releases the directory handle
func (s *FilesystemBlobStore) Close() error {
	return s.root.Close()
}

func cleanKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	name := path.Clean(strings.TrimPrefix(key, "/"))
	if !fs.ValidPath(name) || name == "." {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return name, nil
}
