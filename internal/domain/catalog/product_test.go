package catalog

import (
	"testing"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func validDetails() ProductDetails {
	return ProductDetails{
		Name:          "Áo Thun Basic",
		Description:   "Cotton",
		Price:         dec("199000"),
		StockQuantity: 10,
		IsActive:      true,
	}
}

func TestNewProduct(t *testing.T) {
	t.Run("creates product with slug and event", func(t *testing.T) {
		p, err := NewProduct(validDetails())

		require.NoError(t, err)
		assert.Equal(t, "ao-thun-basic", p.Slug)
		assert.True(t, p.IsActive)
		events := p.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeProductCreated, events[0].EventType())
	})

	t.Run("fails with zero price", func(t *testing.T) {
		d := validDetails()
		d.Price = decimal.Zero

		_, err := NewProduct(d)
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_PRICE", de.Code)
	})

	t.Run("fails when discount is not below price", func(t *testing.T) {
		d := validDetails()
		d.DiscountPrice = decPtr("199000")

		_, err := NewProduct(d)
		assert.Error(t, err)
	})

	t.Run("fails with negative stock", func(t *testing.T) {
		d := validDetails()
		d.StockQuantity = -1

		_, err := NewProduct(d)
		assert.Error(t, err)
	})

	t.Run("fails with punctuation-only name", func(t *testing.T) {
		d := validDetails()
		d.Name = "!!!"

		_, err := NewProduct(d)
		assert.Error(t, err)
	})
}

func TestProduct_EffectivePrice(t *testing.T) {
	p, err := NewProduct(validDetails())
	require.NoError(t, err)
	assert.True(t, p.EffectivePrice().Equal(dec("199000")))
	assert.False(t, p.HasDiscount())

	d := validDetails()
	d.DiscountPrice = decPtr("149000")
	require.NoError(t, p.Update(d))
	assert.True(t, p.EffectivePrice().Equal(dec("149000")))
	assert.True(t, p.HasDiscount())
}

func TestProduct_Stock(t *testing.T) {
	p, err := NewProduct(validDetails())
	require.NoError(t, err)

	assert.True(t, p.CanFulfil(10))
	assert.False(t, p.CanFulfil(11))

	require.NoError(t, p.DecreaseStock(4))
	assert.Equal(t, 6, p.StockQuantity)

	err = p.DecreaseStock(7)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, 6, p.StockQuantity)

	p.IsActive = false
	assert.False(t, p.CanFulfil(1))
}

func TestProduct_SetImage(t *testing.T) {
	p, err := NewProduct(validDetails())
	require.NoError(t, err)

	prev := p.SetImage("https://cdn/a.jpg", "products/a.jpg")
	assert.Empty(t, prev)

	prev = p.SetImage("https://cdn/b.jpg", "products/b.jpg")
	assert.Equal(t, "products/a.jpg", prev)
	assert.Equal(t, "products/b.jpg", p.ImageKey)

	// replacing with an external URL drops the stored key
	d := validDetails()
	d.Image = "https://example.com/x.png"
	require.NoError(t, p.Update(d))
	assert.Empty(t, p.ImageKey)
}

func TestNewProductVariant(t *testing.T) {
	pid := uuid.New()

	t.Run("creates variant", func(t *testing.T) {
		v, err := NewProductVariant(pid, VariantDetails{Size: " M ", Color: "Red", StockQuantity: 3, IsActive: true})

		require.NoError(t, err)
		assert.Equal(t, "M", v.Size)
		assert.Equal(t, pid, v.ProductID)
	})

	t.Run("requires product", func(t *testing.T) {
		_, err := NewProductVariant(uuid.Nil, VariantDetails{Size: "M"})
		assert.Error(t, err)
	})

	t.Run("requires size or color", func(t *testing.T) {
		_, err := NewProductVariant(pid, VariantDetails{})
		assert.Error(t, err)
	})

	t.Run("rejects negative stock on update", func(t *testing.T) {
		v, err := NewProductVariant(pid, VariantDetails{Color: "Blue"})
		require.NoError(t, err)
		assert.Error(t, v.Update(VariantDetails{Color: "Blue", StockQuantity: -2}))
	})
}
