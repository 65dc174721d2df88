package domain

import "context"

// CatalogStore defines the persistence interface for the two catalog
// collections. Load operations return a fresh snapshot (no aliasing into
// persisted state) and ErrCollectionNotFound when the collection has
// never been saved. Save operations replace the whole collection,
// preserving the given order, as one atomic unit.
type CatalogStore interface {
	LoadCategories(ctx context.Context) ([]Category, error)
	SaveCategories(ctx context.Context, categories []Category) error
	LoadProducts(ctx context.Context) ([]Product, error)
	SaveProducts(ctx context.Context, products []Product) error
	Close() error
}

// VisionClient defines the interface for the external vision inference
// service. GenerateMatch submits one JPEG image plus a text prompt and
// returns the model's raw text reply. The reply is untrusted; callers
// must validate it.
type VisionClient interface {
	GenerateMatch(ctx context.Context, imageJPEG []byte, prompt string) (string, error)
}
