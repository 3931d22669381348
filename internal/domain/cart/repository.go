package cart

import (
	"context"

	"github.com/google/uuid"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByUser returns shared.ErrNotFound when the user has no cart yet
	FindByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// Save upserts the cart and replaces its items
	Save(ctx context.Context, cart *Cart) error

	Delete(ctx context.Context, id uuid.UUID) error
}
