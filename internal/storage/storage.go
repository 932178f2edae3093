// Package storage archives raw upstream tile payloads so a cached day can be
// audited or re-imported without hitting the upstream again.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/seatemp/sea-temperature/internal/config"
	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("archive object not found")

// Storage defines the interface for archive operations
type Storage interface {
	Put(ctx context.Context, key, contentType string, data io.Reader, size int64) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// ArchiveKey is the object key of a tile payload
func ArchiveKey(date, tileID string) string {
	return date + "/" + tileID + ".json"
}

// NewStorage creates the archive backend selected by cfg.Mode.
// Mode "none" (or empty) returns a nil Storage and archiving is skipped.
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "", "none":
		return nil, nil
	case "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	case "minio", "s3":
		return NewMinioStorage(context.Background(), &MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// LocalStorage implements Storage on the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid archive key: %s", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

// Put writes data under key, replacing any previous object
func (s *LocalStorage) Put(ctx context.Context, key, contentType string, data io.Reader, size int64) (int64, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	// write to a temp file first so readers never see a partial payload
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".archive-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(tmp, data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to move file into place: %w", err)
	}
	return written, nil
}

// Get opens the object stored under key
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the object stored under key; missing objects are not an error
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
