package catalog

import (
	"context"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByName matches the name case-insensitively
	FindByName(ctx context.Context, name string) (*Category, error)
	ExistsByName(ctx context.Context, name string) (bool, error)

	FindAll(ctx context.Context, filter shared.Filter) ([]Category, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error

	// CountProducts counts products that reference the category
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

// BrandRepository defines the interface for brand persistence
type BrandRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Brand, error)
	FindByName(ctx context.Context, name string) (*Brand, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Brand, error)
	Save(ctx context.Context, brand *Brand) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
}
