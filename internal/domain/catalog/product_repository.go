package catalog

import (
	"context"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// Product filter keys understood by ProductRepository
const (
	FilterCategoryID = "category_id"
	FilterBrandID    = "brand_id"
	FilterMinPrice   = "min_price" // decimal.Decimal, compared against the effective price
	FilterMaxPrice   = "max_price"
	FilterIsActive   = "is_active"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll finds all products matching the filter.
	// Search matches the name case-insensitively.
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByName checks for a product with the same name, ignoring excludeID
	ExistsByName(ctx context.Context, name string, excludeID *uuid.UUID) (bool, error)

	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStock atomically removes qty units, failing with an
	// INSUFFICIENT_STOCK error when fewer are left
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

// VariantRepository defines the interface for product variant persistence
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]ProductVariant, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ProductVariant, error)

	// ExistsCombination checks whether (product, size, color) is taken, ignoring excludeID
	ExistsCombination(ctx context.Context, productID uuid.UUID, size, color string, excludeID *uuid.UUID) (bool, error)

	Save(ctx context.Context, variant *ProductVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
}
