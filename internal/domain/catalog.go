package domain

import "encoding/json"

// Product image bounds enforced when a new product is created.
// Existing records (including migrated legacy data) are exempt on read.
const (
	MinProductImages = 5
	MaxProductImages = 10
)

// Category is a user-defined product grouping. Display order is
// significant and user-reorderable.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Product is a single catalog entry. Price is in minor currency units
// (e.g. VND). Images holds encoded image blobs; the first entry, when
// present, is the canonical representative image. CategoryID may
// reference a deleted category (see GroupedView).
type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Brand      string   `json:"brand"`
	CategoryID string   `json:"categoryId"`
	Price      int64    `json:"price"`
	Images     []string `json:"images"`
}

// productRecord mirrors Product on the wire, plus the legacy singular
// imageUrl field written by old app versions.
type productRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Brand      string   `json:"brand"`
	CategoryID string   `json:"categoryId"`
	Price      int64    `json:"price"`
	Images     []string `json:"images"`
	ImageURL   string   `json:"imageUrl,omitempty"`
}

// UnmarshalJSON upgrades legacy records that carry a singular imageUrl
// instead of an images array. The upgrade is read-time only; nothing is
// written back until the caller saves.
func (p *Product) UnmarshalJSON(data []byte) error {
	var rec productRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}

	images := rec.Images
	if images == nil {
		if rec.ImageURL != "" {
			images = []string{rec.ImageURL}
		} else {
			images = []string{}
		}
	}

	*p = Product{
		ID:         rec.ID,
		Name:       rec.Name,
		Brand:      rec.Brand,
		CategoryID: rec.CategoryID,
		Price:      rec.Price,
		Images:     images,
	}
	return nil
}

// MatchResult is the outcome of one identification call. It is created
// fresh per scan and never persisted. MatchedProductID is nil on
// no-match; Reason is always populated, for matches and rejections alike.
type MatchResult struct {
	MatchedProductID *string `json:"matchedProductId"`
	Reason           string  `json:"reason"`
}

// Matched reports whether the result identifies a catalog product.
func (r MatchResult) Matched() bool {
	return r.MatchedProductID != nil && *r.MatchedProductID != ""
}
