package cart

import (
	"time"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest adds a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=999"`
}

// UpdateItemRequest sets the quantity of a cart line
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=999"`
}

// ProductSummary is the product as shown inside a cart line
type ProductSummary struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Image          string           `json:"image"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	StockQuantity  int              `json:"stock_quantity"`
	IsActive       bool             `json:"is_active"`
}

// CartItemResponse is one cart line
type CartItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	Product   ProductSummary  `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse is the full cart view returned by every cart operation
type CartResponse struct {
	ID         uuid.UUID          `json:"id"`
	Items      []CartItemResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func toProductSummary(p *catalog.Product) ProductSummary {
	return ProductSummary{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Image:          p.Image,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: p.EffectivePrice(),
		StockQuantity:  p.StockQuantity,
		IsActive:       p.IsActive,
	}
}
