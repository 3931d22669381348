package cart

import (
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// Cart is the shopping cart of a single user. Each user owns at most one.
type Cart struct {
	shared.BaseAggregateRoot
	UserID uuid.UUID
	Items  []CartItem
}

// CartItem is one product line of a cart
type CartItem struct {
	ID        uuid.UUID
	CartID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// NewCart creates an empty cart for the user
func NewCart(userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		Items:             make([]CartItem, 0),
	}, nil
}

// AddItem adds qty of the product, merging into an existing line.
// It returns the resulting line.
func (c *Cart) AddItem(productID uuid.UUID, qty int) (CartItem, error) {
	if productID == uuid.Nil {
		return CartItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if err := validateQuantity(qty); err != nil {
		return CartItem{}, err
	}

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += qty
			c.IncrementVersion()
			return c.Items[i], nil
		}
	}

	item := CartItem{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: productID,
		Quantity:  qty,
	}
	c.Items = append(c.Items, item)
	c.IncrementVersion()
	return item, nil
}

// UpdateItem sets the quantity of a line
func (c *Cart) UpdateItem(itemID uuid.UUID, qty int) (CartItem, error) {
	if err := validateQuantity(qty); err != nil {
		return CartItem{}, err
	}
	i := c.indexOf(itemID)
	if i < 0 {
		return CartItem{}, shared.NewDomainError(shared.ErrNotFound.Code, "Cart item not found")
	}
	c.Items[i].Quantity = qty
	c.IncrementVersion()
	return c.Items[i], nil
}

// RemoveItem deletes a line
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	i := c.indexOf(itemID)
	if i < 0 {
		return shared.NewDomainError(shared.ErrNotFound.Code, "Cart item not found")
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.IncrementVersion()
	return nil
}

// Item returns the line with the given id
func (c *Cart) Item(itemID uuid.UUID) (CartItem, bool) {
	i := c.indexOf(itemID)
	if i < 0 {
		return CartItem{}, false
	}
	return c.Items[i], true
}

// QuantityOf returns how many units of the product are in the cart
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it.Quantity
		}
	}
	return 0
}

// Clear removes every line
func (c *Cart) Clear() {
	if len(c.Items) == 0 {
		return
	}
	c.Items = make([]CartItem, 0)
	c.IncrementVersion()
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalItems is the sum of line quantities
func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// ProductIDs lists the distinct products in the cart
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, it := range c.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func (c *Cart) indexOf(itemID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func validateQuantity(qty int) error {
	if qty < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	return nil
}
