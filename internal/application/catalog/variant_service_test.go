package catalog

import (
	"context"
	"testing"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVariantService_Create(t *testing.T) {
	ctx := context.Background()
	product := newTestProduct(t, "Sneaker", 500)

	t.Run("success defaults to active", func(t *testing.T) {
		variants := new(MockVariantRepository)
		products := new(MockProductRepository)
		svc := NewVariantService(variants, products)

		products.On("FindByID", ctx, product.ID).Return(product, nil)
		variants.On("ExistsCombination", ctx, product.ID, "42", "Đen", (*uuid.UUID)(nil)).Return(false, nil)
		variants.On("Save", ctx, mock.AnythingOfType("*catalog.ProductVariant")).Return(nil)

		resp, err := svc.Create(ctx, VariantRequest{ProductID: product.ID, Size: " 42 ", Color: "Đen", StockQuantity: 3})
		require.NoError(t, err)
		assert.Equal(t, "42", resp.Size)
		assert.True(t, resp.IsActive)
	})

	t.Run("duplicate combination", func(t *testing.T) {
		variants := new(MockVariantRepository)
		products := new(MockProductRepository)
		svc := NewVariantService(variants, products)

		products.On("FindByID", ctx, product.ID).Return(product, nil)
		variants.On("ExistsCombination", ctx, product.ID, "42", "", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := svc.Create(ctx, VariantRequest{ProductID: product.ID, Size: "42"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("unknown product", func(t *testing.T) {
		variants := new(MockVariantRepository)
		products := new(MockProductRepository)
		svc := NewVariantService(variants, products)
		id := uuid.New()
		products.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := svc.Create(ctx, VariantRequest{ProductID: id, Size: "M"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestVariantService_Update_ExcludesSelf(t *testing.T) {
	ctx := context.Background()
	variants := new(MockVariantRepository)
	svc := NewVariantService(variants, new(MockProductRepository))

	v, err := catalog.NewProductVariant(uuid.New(), catalog.VariantDetails{Size: "M", StockQuantity: 1, IsActive: true})
	require.NoError(t, err)
	inactive := false

	variants.On("FindByID", ctx, v.ID).Return(v, nil)
	variants.On("ExistsCombination", ctx, v.ProductID, "L", "", &v.ID).Return(false, nil)
	variants.On("Save", ctx, v).Return(nil)

	resp, err := svc.Update(ctx, v.ID, UpdateVariantRequest{Size: "L", StockQuantity: 2, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "L", resp.Size)
	assert.False(t, resp.IsActive)
}
