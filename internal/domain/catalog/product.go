package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a sellable item in the storefront catalog.
// It is the aggregate root for product-related operations.
type Product struct {
	shared.BaseAggregateRoot
	Name          string
	Slug          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Image         string
	ImageKey      string // object storage key of an uploaded image, empty for external URLs
	StockQuantity int
	IsActive      bool
	CategoryID    *uuid.UUID
	BrandID       *uuid.UUID
}

// ProductDetails carries the editable attributes of a product
type ProductDetails struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	Image         string
	StockQuantity int
	IsActive      bool
	CategoryID    *uuid.UUID
	BrandID       *uuid.UUID
}

// NewProduct creates a new product
func NewProduct(d ProductDetails) (*Product, error) {
	p := &Product{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := p.apply(d); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update replaces the editable attributes of the product
func (p *Product) Update(d ProductDetails) error {
	if err := p.apply(d); err != nil {
		return err
	}
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return nil
}

func (p *Product) apply(d ProductDetails) error {
	name := strings.TrimSpace(d.Name)
	if err := validateProductName(name); err != nil {
		return err
	}
	if err := validatePricing(d.Price, d.DiscountPrice); err != nil {
		return err
	}
	if d.StockQuantity < 0 {
		return shared.NewDomainError("INVALID_STOCK", "Stock quantity cannot be negative")
	}

	p.Name = name
	p.Slug = Slugify(name)
	p.Description = strings.TrimSpace(d.Description)
	p.Price = d.Price
	p.DiscountPrice = d.DiscountPrice
	if d.Image != "" && d.Image != p.Image {
		p.Image = d.Image
		p.ImageKey = ""
	}
	p.StockQuantity = d.StockQuantity
	p.IsActive = d.IsActive
	p.CategoryID = d.CategoryID
	p.BrandID = d.BrandID
	return nil
}

// EffectivePrice is the price a shopper pays: the discount price when set
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// HasDiscount reports whether a discount price is set
func (p *Product) HasDiscount() bool {
	return p.DiscountPrice != nil
}

// SetImage attaches an uploaded image. The previous key is returned so the
// caller can remove the old object.
func (p *Product) SetImage(url, key string) (previousKey string) {
	previousKey = p.ImageKey
	p.Image = url
	p.ImageKey = key
	p.IncrementVersion()
	p.AddDomainEvent(NewProductUpdatedEvent(p))
	return previousKey
}

// CanFulfil reports whether qty units can be sold
func (p *Product) CanFulfil(qty int) bool {
	return p.IsActive && qty > 0 && p.StockQuantity >= qty
}

// DecreaseStock removes sold units from stock
func (p *Product) DecreaseStock(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if p.StockQuantity < qty {
		return shared.NewDomainError(shared.ErrInsufficientStock.Code,
			fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", p.Name, qty, p.StockQuantity))
	}
	p.StockQuantity -= qty
	p.IncrementVersion()
	return nil
}

// MarkDeleted records the deletion event before the repository removes the row
func (p *Product) MarkDeleted() {
	p.AddDomainEvent(NewProductDeletedEvent(p))
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot exceed 100 characters")
	}
	if Slugify(name) == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name must contain letters or digits")
	}
	return nil
}

func validatePricing(price decimal.Decimal, discount *decimal.Decimal) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be greater than 0")
	}
	if discount == nil {
		return nil
	}
	if !discount.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Discount price must be greater than 0")
	}
	if discount.GreaterThanOrEqual(price) {
		return shared.NewDomainError("INVALID_PRICE", "Discount price must be lower than price")
	}
	return nil
}
