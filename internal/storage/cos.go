package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tencentyun/cos-go-sdk-v5"

	apperrors "github.com/class-inspect/pkg/errors"
)

// cosRequestTimeout bounds a single object operation. Disassembly
// artifacts are small; anything slower than this is a stuck transfer.
const cosRequestTimeout = 60 * time.Second

// COSConfig configures the Tencent COS backend.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string

	// Domain overrides the endpoint domain, default myqcloud.com.
	Domain string
	// Scheme overrides the URL scheme, default https.
	Scheme string
}

func (c *COSConfig) validate() error {
	if c.Bucket == "" {
		return fmt.Errorf("COS bucket is required")
	}
	if c.Region == "" {
		return fmt.Errorf("COS region is required")
	}
	if c.SecretID == "" || c.SecretKey == "" {
		return fmt.Errorf("COS credentials are required")
	}
	return nil
}

// COSStorage stores artifacts in a Tencent COS bucket. Artifact names
// become object keys unchanged, and uploads carry a content type
// derived from the artifact kind so reports and disassembly stay
// directly viewable from the bucket.
type COSStorage struct {
	client *cos.Client
}

// NewCOSStorage builds the COS-backed store from cfg.
func NewCOSStorage(cfg *COSConfig) (*COSStorage, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket URL: %w", err)
	}
	serviceURL, err := url.Parse(fmt.Sprintf("%s://cos.%s.%s", scheme, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("failed to parse service URL: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{
		BucketURL:  bucketURL,
		ServiceURL: serviceURL,
	}, &http.Client{
		Timeout: cosRequestTimeout,
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSStorage{client: client}, nil
}

// Upload streams reader to key.
func (s *COSStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	if _, err := s.client.Object.Put(ctx, key, reader, putOptions(key)); err != nil {
		return apperrors.WrapUpload(key, err)
	}
	return nil
}

// UploadFile copies a local file to key.
func (s *COSStorage) UploadFile(ctx context.Context, key string, localPath string) error {
	if _, err := s.client.Object.PutFromFile(ctx, key, localPath, putOptions(key)); err != nil {
		return apperrors.WrapUpload(key, err)
	}
	return nil
}

// Download opens the object at key.
func (s *COSStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil, apperrors.NotFound(key)
		}
		return nil, apperrors.WrapDownload(key, err)
	}
	return resp.Body, nil
}

// DownloadFile copies the object at key to a local path.
func (s *COSStorage) DownloadFile(ctx context.Context, key string, localPath string) error {
	if err := ensureParentDir(localPath); err != nil {
		return err
	}

	if _, err := s.client.Object.GetToFile(ctx, key, localPath, nil); err != nil {
		if cos.IsNotFoundError(err) {
			return apperrors.NotFound(key)
		}
		return apperrors.WrapDownload(key, err)
	}
	return nil
}

// Delete removes the object at key.
func (s *COSStorage) Delete(ctx context.Context, key string) error {
	if _, err := s.client.Object.Delete(ctx, key); err != nil {
		return apperrors.WrapStorage("delete "+key, err)
	}
	return nil
}

// Exists reports whether an object is stored at key.
func (s *COSStorage) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, apperrors.WrapStorage("check "+key, err)
	}
	return ok, nil
}

// GetURL returns the public object URL for key.
func (s *COSStorage) GetURL(key string) string {
	return s.client.Object.GetObjectURL(key).String()
}

func putOptions(key string) *cos.ObjectPutOptions {
	return &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType: artifactContentType(key),
		},
	}
}

// artifactContentType maps an artifact key to its MIME type. Scan
// artifacts are a closed set: JSON documents, javap text, and their
// compressed forms. Compressed suffixes win over the inner extension.
func artifactContentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".zst"):
		return "application/zstd"
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".txt"):
		return "text/plain; charset=utf-8"
	case strings.HasSuffix(key, ".html"):
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
