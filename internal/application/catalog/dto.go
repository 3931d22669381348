package catalog

import (
	"time"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Storefront listing defaults
const (
	DefaultProductPageSize = 12
	MaxProductPageSize     = 100
)

// ProductRequest creates or replaces a product
type ProductRequest struct {
	Name          string           `json:"name" binding:"required,min=1,max=100"`
	Description   string           `json:"description" binding:"max=5000"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	Image         string           `json:"image" binding:"omitempty,max=500"`
	StockQuantity int              `json:"stock_quantity" binding:"min=0"`
	IsActive      *bool            `json:"is_active"`
	CategoryID    *uuid.UUID       `json:"category_id"`
	BrandID       *uuid.UUID       `json:"brand_id"`
}

func (r ProductRequest) details() catalog.ProductDetails {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return catalog.ProductDetails{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		DiscountPrice: r.DiscountPrice,
		Image:         r.Image,
		StockQuantity: r.StockQuantity,
		IsActive:      active,
		CategoryID:    r.CategoryID,
		BrandID:       r.BrandID,
	}
}

// ProductListFilter is the query of GET /products/filter.
// Query names follow the storefront client (camelCase).
type ProductListFilter struct {
	CategoryID string `form:"categoryId" binding:"omitempty,uuid"`
	BrandID    string `form:"brandId" binding:"omitempty,uuid"`
	MinPrice   string `form:"minPrice" binding:"omitempty,numeric"`
	MaxPrice   string `form:"maxPrice" binding:"omitempty,numeric"`
	Name       string `form:"name" binding:"max=100"`
	SortBy     string `form:"sortBy" binding:"omitempty,oneof=name price createdAt created_at"`
	SortOrder  string `form:"sortOrder" binding:"omitempty,sortorder"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=100"`

	// IncludeInactive is set by the admin listing only
	IncludeInactive bool `form:"-"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Image          string           `json:"image"`
	StockQuantity  int              `json:"stock_quantity"`
	IsActive       bool             `json:"is_active"`
	CategoryID     *uuid.UUID       `json:"category_id,omitempty"`
	CategoryName   string           `json:"category_name,omitempty"`
	BrandID        *uuid.UUID       `json:"brand_id,omitempty"`
	BrandName      string           `json:"brand_name,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ToProductResponse converts a domain Product to ProductResponse.
// Category and brand names are filled by the service.
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: p.EffectivePrice(),
		Image:          p.Image,
		StockQuantity:  p.StockQuantity,
		IsActive:       p.IsActive,
		CategoryID:     p.CategoryID,
		BrandID:        p.BrandID,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// VariantRequest creates a variant
type VariantRequest struct {
	ProductID     uuid.UUID `json:"product_id" binding:"required"`
	Size          string    `json:"size" binding:"max=20"`
	Color         string    `json:"color" binding:"max=50"`
	StockQuantity int       `json:"stock_quantity" binding:"min=0"`
	Image         string    `json:"image" binding:"omitempty,max=500"`
	IsActive      *bool     `json:"is_active"`
}

// UpdateVariantRequest replaces the attributes of a variant
type UpdateVariantRequest struct {
	Size          string `json:"size" binding:"max=20"`
	Color         string `json:"color" binding:"max=50"`
	StockQuantity int    `json:"stock_quantity" binding:"min=0"`
	Image         string `json:"image" binding:"omitempty,max=500"`
	IsActive      *bool  `json:"is_active"`
}

func variantDetails(size, color string, stock int, image string, active *bool) catalog.VariantDetails {
	isActive := true
	if active != nil {
		isActive = *active
	}
	return catalog.VariantDetails{
		Size:          size,
		Color:         color,
		StockQuantity: stock,
		Image:         image,
		IsActive:      isActive,
	}
}

// VariantResponse represents a product variant in API responses
type VariantResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	Size          string    `json:"size"`
	Color         string    `json:"color"`
	StockQuantity int       `json:"stock_quantity"`
	Image         string    `json:"image"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToVariantResponse converts a domain ProductVariant to VariantResponse
func ToVariantResponse(v *catalog.ProductVariant) VariantResponse {
	return VariantResponse{
		ID:            v.ID,
		ProductID:     v.ProductID,
		Size:          v.Size,
		Color:         v.Color,
		StockQuantity: v.StockQuantity,
		Image:         v.Image,
		IsActive:      v.IsActive,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

// LabelRequest creates or updates a category or a brand
type LabelRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=1000"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// BrandResponse represents a brand in API responses
type BrandResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToBrandResponse converts a domain Brand to BrandResponse
func ToBrandResponse(b *catalog.Brand) BrandResponse {
	return BrandResponse{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// ImageResponse describes a stored image
type ImageResponse struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}
