package catalog

import (
	"strings"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductVariant is a size/color option of a product with its own stock
type ProductVariant struct {
	shared.BaseEntity
	ProductID     uuid.UUID
	Size          string
	Color         string
	StockQuantity int
	Image         string
	ImageKey      string
	IsActive      bool
}

// VariantDetails carries the editable attributes of a variant
type VariantDetails struct {
	Size          string
	Color         string
	StockQuantity int
	Image         string
	IsActive      bool
}

// NewProductVariant creates a variant of the given product
func NewProductVariant(productID uuid.UUID, d VariantDetails) (*ProductVariant, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	v := &ProductVariant{BaseEntity: shared.NewBaseEntity(), ProductID: productID}
	if err := v.apply(d); err != nil {
		return nil, err
	}
	return v, nil
}

// Update replaces the editable attributes of the variant
func (v *ProductVariant) Update(d VariantDetails) error {
	if err := v.apply(d); err != nil {
		return err
	}
	v.Touch()
	return nil
}

func (v *ProductVariant) apply(d VariantDetails) error {
	size := strings.TrimSpace(d.Size)
	color := strings.TrimSpace(d.Color)
	if size == "" && color == "" {
		return shared.NewDomainError("INVALID_VARIANT", "Variant needs a size or a color")
	}
	if len(size) > 20 || len(color) > 50 {
		return shared.NewDomainError("INVALID_VARIANT", "Size or color is too long")
	}
	if d.StockQuantity < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}
	v.Size = size
	v.Color = color
	v.StockQuantity = d.StockQuantity
	if d.Image != v.Image {
		v.Image = d.Image
		v.ImageKey = ""
	}
	v.IsActive = d.IsActive
	return nil
}
