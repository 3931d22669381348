package order

import (
	"context"

	"github.com/ecomt/storefront/internal/domain/cart"
	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/order"
)

// TransactionalRepositories provides repositories bound to a single transaction
type TransactionalRepositories interface {
	OrderRepo() order.OrderRepository
	CartRepo() cart.CartRepository
	ProductRepo() catalog.ProductRepository
}

// TransactionScope runs checkout steps atomically.
// When fn returns an error every change made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
