package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	apperrors "github.com/class-inspect/pkg/errors"
)

// LocalStorage implements Storage on the local filesystem. Slash-
// separated keys map to paths under the base directory, so an uploaded
// scan keeps its artifact layout and the web viewer can serve it
// straight from disk.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage builds a store rooted at basePath, creating the
// directory if needed. An empty path defaults to ./storage.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./storage"
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{basePath: basePath}, nil
}

// Upload streams reader to key. The object is written to a temporary
// file and renamed into place, so a concurrent reader never observes
// a half-written artifact.
func (s *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := s.objectPath(key)
	if err := ensureParentDir(fullPath); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), filepath.Base(fullPath)+".tmp*")
	if err != nil {
		return apperrors.WrapUpload(key, err)
	}

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return apperrors.WrapUpload(key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return apperrors.WrapUpload(key, err)
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return apperrors.WrapUpload(key, err)
	}
	return nil
}

// UploadFile copies a local file to key.
func (s *LocalStorage) UploadFile(ctx context.Context, key string, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return apperrors.WrapUpload(key, err)
	}
	defer src.Close()

	return s.Upload(ctx, key, src)
}

// Download opens the object at key.
func (s *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(s.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound(key)
		}
		return nil, apperrors.WrapDownload(key, err)
	}
	return file, nil
}

// DownloadFile copies the object at key to a local path.
func (s *LocalStorage) DownloadFile(ctx context.Context, key string, localPath string) error {
	src, err := s.Download(ctx, key)
	if err != nil {
		return err
	}
	defer src.Close()

	if err := ensureParentDir(localPath); err != nil {
		return err
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return apperrors.WrapDownload(key, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return apperrors.WrapDownload(key, err)
	}
	return nil
}

// Delete removes the object at key. A missing object is not an error.
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.objectPath(key)); err != nil && !os.IsNotExist(err) {
		return apperrors.WrapStorage("delete "+key, err)
	}
	return nil
}

// Exists reports whether an object is stored at key.
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if _, err := os.Stat(s.objectPath(key)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.WrapStorage("check "+key, err)
	}
	return true, nil
}

// GetURL returns the filesystem path backing key.
func (s *LocalStorage) GetURL(key string) string {
	return s.objectPath(key)
}

// GetBasePath returns the storage root directory.
func (s *LocalStorage) GetBasePath() string {
	return s.basePath
}

// objectPath maps a key to its path under the base directory. Keys
// are rooted before cleaning so "../" segments cannot escape it.
func (s *LocalStorage) objectPath(key string) string {
	rel := path.Clean("/" + key)[1:]
	return filepath.Join(s.basePath, filepath.FromSlash(rel))
}

func ensureParentDir(p string) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}
