package catalog

import (
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated = "ProductCreated"
	EventTypeProductUpdated = "ProductUpdated"
	EventTypeProductDeleted = "ProductDeleted"
)

// ProductEvent is published whenever the catalog entry of a product changes
type ProductEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	EffectivePrice decimal.Decimal `json:"effective_price"`
	IsActive       bool            `json:"is_active"`
}

func newProductEvent(eventType string, p *Product) *ProductEvent {
	return &ProductEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Name:            p.Name,
		Slug:            p.Slug,
		EffectivePrice:  p.EffectivePrice(),
		IsActive:        p.IsActive,
	}
}

// NewProductCreatedEvent creates a new ProductCreated event
func NewProductCreatedEvent(p *Product) *ProductEvent {
	return newProductEvent(EventTypeProductCreated, p)
}

// NewProductUpdatedEvent creates a new ProductUpdated event
func NewProductUpdatedEvent(p *Product) *ProductEvent {
	return newProductEvent(EventTypeProductUpdated, p)
}

// NewProductDeletedEvent creates a new ProductDeleted event
func NewProductDeletedEvent(p *Product) *ProductEvent {
	return newProductEvent(EventTypeProductDeleted, p)
}
