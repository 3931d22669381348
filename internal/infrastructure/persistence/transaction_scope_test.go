package persistence

import (
	"errors"
	"testing"

	apporder "github.com/ecomt/storefront/internal/application/order"
	"github.com/ecomt/storefront/internal/domain/cart"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db)
	products := NewGormProductRepository(db)
	carts := NewGormCartRepository(db)
	ctx := t.Context()

	p := seedProduct(t, products, "Lamp", 100, 5)
	userID := uuid.New()
	c, err := cart.NewCart(userID)
	require.NoError(t, err)
	_, err = c.AddItem(p.ID, 2)
	require.NoError(t, err)
	require.NoError(t, carts.Save(ctx, c))

	t.Run("rolls back every write on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := scope.Execute(ctx, func(repos apporder.TransactionalRepositories) error {
			if err := repos.ProductRepo().DecrementStock(ctx, p.ID, 2); err != nil {
				return err
			}
			inTx, err := repos.CartRepo().FindByUser(ctx, userID)
			if err != nil {
				return err
			}
			inTx.Clear()
			if err := repos.CartRepo().Save(ctx, inTx); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		found, err := products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, found.StockQuantity)

		stored, err := carts.FindByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.TotalItems())
	})

	t.Run("commits on success", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos apporder.TransactionalRepositories) error {
			return repos.ProductRepo().DecrementStock(ctx, p.ID, 5)
		})
		require.NoError(t, err)

		found, err := products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, found.StockQuantity)
	})

	t.Run("surfaces insufficient stock", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos apporder.TransactionalRepositories) error {
			return repos.ProductRepo().DecrementStock(ctx, p.ID, 1)
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})
}
