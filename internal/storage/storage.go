// Package storage persists scan artifacts to an object store.
//
// Keys are the slash-separated artifact names from a scan report, for
// example "scans/nightly/classes/com/example/Main.txt.zst", so a
// stored scan keeps the exact layout the scanner wrote locally.
// Backends classify their failures with pkg/errors codes; a missing
// object reads back as CodeNotFound.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/class-inspect/pkg/config"
)

// Storage is the object store surface the scanner and service wire up.
// UploadFile covers artifacts the scanner already wrote to disk;
// Download and DownloadFile read a stored scan back, for example to
// rehydrate an output directory for the web viewer.
type Storage interface {
	// Upload streams reader to key.
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadFile copies a local file to key.
	UploadFile(ctx context.Context, key string, localPath string) error

	// Download opens the object at key. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadFile copies the object at key to a local path, creating
	// parent directories as needed.
	DownloadFile(ctx context.Context, key string, localPath string) error

	// Delete removes the object at key. Deleting a missing object is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns where the object is addressable: a public URL
	// for COS, a filesystem path for local storage.
	GetURL(key string) string
}

// StorageType names a backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
)

// NewStorage builds the backend named by cfg.Type. An empty type
// selects local storage. Each backend validates its own settings.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is nil")
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	case StorageTypeLocal, "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
