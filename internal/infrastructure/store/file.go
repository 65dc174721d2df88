// Package store provides the CatalogStore persistence backends.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/shopsnap/backend/internal/domain"
)

const (
	categoriesFile = "categories.json"
	productsFile   = "products.json"
	lockFile       = "catalog.lock"
)

// Ensure FileStore implements domain.CatalogStore
var _ domain.CatalogStore = (*FileStore)(nil)

// FileStore persists each collection as a JSON array in its own file
// under a data directory. Writes go to a temp file which is then renamed
// over the target, so a collection is never partially written. A flock
// lock file keeps a second server instance from sharing the directory.
type FileStore struct {
	dir  string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewFileStore creates the data directory if needed and acquires the
// instance lock. The lock is held until Close.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire catalog lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("catalog directory %s is locked by another instance", dir)
	}

	return &FileStore{dir: dir, lock: lock}, nil
}

// Close releases the instance lock.
func (s *FileStore) Close() error {
	return s.lock.Unlock()
}

// LoadCategories returns the persisted categories in display order.
func (s *FileStore) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := s.read(ctx, categoriesFile, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// SaveCategories replaces the persisted category collection.
func (s *FileStore) SaveCategories(ctx context.Context, categories []domain.Category) error {
	if categories == nil {
		categories = []domain.Category{}
	}
	return s.write(ctx, categoriesFile, categories)
}

// LoadProducts returns the persisted products. Legacy records carrying a
// singular imageUrl are upgraded to the images shape during decoding;
// nothing is written back.
func (s *FileStore) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.read(ctx, productsFile, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SaveProducts replaces the persisted product collection.
func (s *FileStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}
	return s.write(ctx, productsFile, products)
}

func (s *FileStore) read(ctx context.Context, name string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.ErrCollectionNotFound
		}
		return fmt.Errorf("%w: reading %s: %v", domain.ErrStoreFailure, name, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrCorruptData, name, err)
	}
	return nil
}

func (s *FileStore) write(ctx context.Context, name string, in any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %v", domain.ErrStoreFailure, name, err)
	}

	target := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %v", domain.ErrStoreFailure, name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", domain.ErrStoreFailure, name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing %s: %v", domain.ErrStoreFailure, name, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing %s: %v", domain.ErrStoreFailure, name, err)
	}

	slog.Debug("collection saved", "component", "store", "file", name)
	return nil
}
