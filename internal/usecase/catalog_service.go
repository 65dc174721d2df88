package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shopsnap/backend/internal/domain"
)

// Default catalog contents, persisted on first-ever access.
var defaultCategories = []domain.Category{
	{ID: "cat_1", Name: "Đồ uống"},
	{ID: "cat_2", Name: "Đồ ăn vặt"},
	{ID: "cat_3", Name: "Gia vị"},
}

var defaultProducts = []domain.Product{
	{ID: "prod_1", Name: "Coca Cola", CategoryID: "cat_1", Price: 10000, Brand: "Coca-Cola", Images: []string{}},
	{ID: "prod_2", Name: "Snack Khoai Tây", CategoryID: "cat_2", Price: 15000, Brand: "Lay's", Images: []string{}},
	{ID: "prod_3", Name: "Nước Tương", CategoryID: "cat_3", Price: 22000, Brand: "Chin-su", Images: []string{}},
}

// CatalogService owns all catalog reads and writes. Every read hands out
// a fresh snapshot; every write replaces a whole collection through the
// store. A mutex serializes read-modify-write sequences so saves from
// the same caller apply in invocation order.
type CatalogService struct {
	store domain.CatalogStore
	mu    sync.Mutex
}

// NewCatalogService creates a catalog service on the given store.
func NewCatalogService(store domain.CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

// GetCategories returns categories in display order. On first-ever
// access it seeds and persists the default set.
func (s *CatalogService) GetCategories(ctx context.Context) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadCategories(ctx)
}

// SaveCategories replaces the whole category collection and its order.
// This is how the UI commits a drag-reorder. Referential integrity
// against products is deliberately not checked.
func (s *CatalogService) SaveCategories(ctx context.Context, categories []domain.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SaveCategories(ctx, copyCategories(categories))
}

// AddCategory assigns a fresh id, appends to the end of the current
// order and persists. The name is stored as given; trimming is the
// caller's responsibility.
func (s *CatalogService) AddCategory(ctx context.Context, name string) (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.loadCategories(ctx)
	if err != nil {
		return domain.Category{}, err
	}

	category := domain.Category{ID: newID("cat"), Name: name}
	categories = append(categories, category)
	if err := s.store.SaveCategories(ctx, categories); err != nil {
		return domain.Category{}, err
	}
	return category, nil
}

// DeleteCategory removes the category with the given id. Absent ids are
// a silent no-op. Products referencing the category are left untouched.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.loadCategories(ctx)
	if err != nil {
		return err
	}

	kept := categories[:0]
	for _, c := range categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return s.store.SaveCategories(ctx, kept)
}

// GetProducts returns the product collection, seeding the defaults on
// first-ever access. Legacy records are already normalized by the store.
func (s *CatalogService) GetProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadProducts(ctx)
}

// SaveProducts replaces the whole product collection.
func (s *CatalogService) SaveProducts(ctx context.Context, products []domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SaveProducts(ctx, copyProducts(products))
}

// AddProduct validates the candidate, assigns a fresh id, appends and
// persists. Newly created products must carry between MinProductImages
// and MaxProductImages images; records already persisted are never
// re-checked.
func (s *CatalogService) AddProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := validateNewProduct(product); err != nil {
		return domain.Product{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	product.ID = newID("prod")
	products = append(products, product)
	if err := s.store.SaveProducts(ctx, products); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// UpdateProduct replaces the record matching the product's id. If no
// record matches, nothing happens and no error is returned.
func (s *CatalogService) UpdateProduct(ctx context.Context, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return err
	}

	for i := range products {
		if products[i].ID == product.ID {
			products[i] = product
			return s.store.SaveProducts(ctx, products)
		}
	}
	return nil
}

// DeleteProduct removes the record with the given id. Absent ids are a
// silent no-op.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return err
	}

	kept := products[:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return s.store.SaveProducts(ctx, kept)
}

func (s *CatalogService) loadCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.store.LoadCategories(ctx)
	if err == nil {
		return categories, nil
	}
	if !isCollectionNotFound(err) {
		return nil, err
	}

	seeded := copyCategories(defaultCategories)
	if err := s.store.SaveCategories(ctx, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

func (s *CatalogService) loadProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.LoadProducts(ctx)
	if err == nil {
		return products, nil
	}
	if !isCollectionNotFound(err) {
		return nil, err
	}

	seeded := copyProducts(defaultProducts)
	if err := s.store.SaveProducts(ctx, seeded); err != nil {
		return nil, err
	}
	return seeded, nil
}

func isCollectionNotFound(err error) bool {
	return errors.Is(err, domain.ErrCollectionNotFound)
}

// newID builds an id from a type prefix, a millisecond timestamp for
// insertion-order tie-breaks, and a uuid fragment so that calls within
// the same millisecond cannot collide.
func newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}

func validateNewProduct(p domain.Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrValidation)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", domain.ErrValidation)
	}
	if len(p.Images) < domain.MinProductImages {
		return fmt.Errorf("%w: a new product needs at least %d images, got %d",
			domain.ErrValidation, domain.MinProductImages, len(p.Images))
	}
	if len(p.Images) > domain.MaxProductImages {
		return fmt.Errorf("%w: a product can carry at most %d images, got %d",
			domain.ErrValidation, domain.MaxProductImages, len(p.Images))
	}
	return nil
}

func copyCategories(categories []domain.Category) []domain.Category {
	out := make([]domain.Category, len(categories))
	copy(out, categories)
	return out
}

func copyProducts(products []domain.Product) []domain.Product {
	out := make([]domain.Product, len(products))
	for i, p := range products {
		images := make([]string, len(p.Images))
		copy(images, p.Images)
		p.Images = images
		out[i] = p
	}
	return out
}
