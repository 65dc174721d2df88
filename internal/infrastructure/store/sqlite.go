package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/shopsnap/backend/internal/domain"
)

// Ensure SQLiteStore implements domain.CatalogStore
var _ domain.CatalogStore = (*SQLiteStore)(nil)

// SQLiteStore implements domain.CatalogStore on SQLite. Each save
// replaces a whole collection inside one transaction; a position column
// preserves display order. A collections marker table distinguishes a
// never-saved collection from one saved empty.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS categories (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS products (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	brand       TEXT NOT NULL DEFAULT '',
	category_id TEXT NOT NULL DEFAULT '',
	price       INTEGER NOT NULL DEFAULT 0,
	images      TEXT NOT NULL DEFAULT '[]',
	position    INTEGER NOT NULL
);
`

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadCategories returns the persisted categories in display order.
func (s *SQLiteStore) LoadCategories(ctx context.Context) ([]domain.Category, error) {
	saved, err := s.collectionSaved(ctx, "categories")
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, domain.ErrCollectionNotFound
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%w: querying categories: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("%w: scanning category: %v", domain.ErrStoreFailure, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading categories: %v", domain.ErrStoreFailure, err)
	}
	return categories, nil
}

// SaveCategories replaces the category collection in one transaction.
func (s *SQLiteStore) SaveCategories(ctx context.Context, categories []domain.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM categories"); err != nil {
		return fmt.Errorf("%w: clearing categories: %v", domain.ErrStoreFailure, err)
	}
	for i, c := range categories {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO categories (id, name, position) VALUES (?, ?, ?)",
			c.ID, c.Name, i,
		)
		if err != nil {
			return fmt.Errorf("%w: inserting category %s: %v", domain.ErrStoreFailure, c.ID, err)
		}
	}
	if err := markSaved(ctx, tx, "categories"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing categories: %v", domain.ErrStoreFailure, err)
	}
	return nil
}

// LoadProducts returns the persisted products in insertion order.
func (s *SQLiteStore) LoadProducts(ctx context.Context) ([]domain.Product, error) {
	saved, err := s.collectionSaved(ctx, "products")
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, domain.ErrCollectionNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, brand, category_id, price, images FROM products ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("%w: querying products: %v", domain.ErrStoreFailure, err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		var images string
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.CategoryID, &p.Price, &images); err != nil {
			return nil, fmt.Errorf("%w: scanning product: %v", domain.ErrStoreFailure, err)
		}
		if err := json.Unmarshal([]byte(images), &p.Images); err != nil {
			return nil, fmt.Errorf("%w: product %s images: %v", domain.ErrCorruptData, p.ID, err)
		}
		if p.Images == nil {
			p.Images = []string{}
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading products: %v", domain.ErrStoreFailure, err)
	}
	return products, nil
}

// SaveProducts replaces the product collection in one transaction.
func (s *SQLiteStore) SaveProducts(ctx context.Context, products []domain.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", domain.ErrStoreFailure, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("%w: clearing products: %v", domain.ErrStoreFailure, err)
	}
	for i, p := range products {
		images, err := json.Marshal(p.Images)
		if err != nil {
			return fmt.Errorf("%w: encoding product %s images: %v", domain.ErrStoreFailure, p.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO products (id, name, brand, category_id, price, images, position) VALUES (?, ?, ?, ?, ?, ?, ?)",
			p.ID, p.Name, p.Brand, p.CategoryID, p.Price, string(images), i,
		)
		if err != nil {
			return fmt.Errorf("%w: inserting product %s: %v", domain.ErrStoreFailure, p.ID, err)
		}
	}
	if err := markSaved(ctx, tx, "products"); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing products: %v", domain.ErrStoreFailure, err)
	}
	return nil
}

func (s *SQLiteStore) collectionSaved(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM collections WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%w: checking collection %s: %v", domain.ErrStoreFailure, name, err)
	}
	return n > 0, nil
}

func markSaved(ctx context.Context, tx *sql.Tx, name string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO collections (name) VALUES (?) ON CONFLICT(name) DO NOTHING", name)
	if err != nil {
		return fmt.Errorf("%w: marking collection %s: %v", domain.ErrStoreFailure, name, err)
	}
	return nil
}
