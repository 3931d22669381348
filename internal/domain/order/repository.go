package order

import (
	"context"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
)

// FilterStatus restricts FindAll/Count to one OrderStatus
const FilterStatus = "status"

// FilterUserID restricts FindAll/Count to one user's orders
const FilterUserID = "user_id"

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Order, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates the order with its details, or updates the header of an existing one
	Save(ctx context.Context, order *Order) error
}
