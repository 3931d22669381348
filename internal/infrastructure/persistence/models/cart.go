package models

import (
	"time"

	"github.com/ecomt/storefront/internal/domain/cart"
	"github.com/google/uuid"
)

// CartModel is the persistence model for the Cart aggregate.
type CartModel struct {
	AggregateModel
	UserID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	Items  []CartItemModel `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// CartItemModel is one line of a cart.
type CartItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CartID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the persistence model to a domain Cart aggregate.
func (m *CartModel) ToDomain() *cart.Cart {
	c := &cart.Cart{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserID:            m.UserID,
		Items:             make([]cart.CartItem, 0, len(m.Items)),
	}
	for _, it := range m.Items {
		c.Items = append(c.Items, cart.CartItem{
			ID:        it.ID,
			CartID:    it.CartID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}
	return c
}

// FromDomain populates the persistence model from a domain Cart aggregate.
func (m *CartModel) FromDomain(c *cart.Cart) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.UserID = c.UserID
	m.Items = make([]CartItemModel, 0, len(c.Items))
	for _, it := range c.Items {
		m.Items = append(m.Items, CartItemModel{
			ID:        it.ID,
			CartID:    c.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			CreatedAt: c.UpdatedAt,
		})
	}
}
