package catalog

import (
	"context"
	"testing"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type productFixture struct {
	svc        *ProductService
	products   *MockProductRepository
	categories *MockCategoryRepository
	brands     *MockBrandRepository
	storage    *fakeStorage
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products:   new(MockProductRepository),
		categories: new(MockCategoryRepository),
		brands:     new(MockBrandRepository),
		storage:    newFakeStorage(),
	}
	images := NewImageService(f.storage, 0, nil)
	f.svc = NewProductService(f.products, f.categories, f.brands, images, nil)
	return f
}

func newTestProduct(t *testing.T, name string, price int64) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductDetails{
		Name:          name,
		Price:         decimal.NewFromInt(price),
		StockQuantity: 10,
		IsActive:      true,
	})
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates product with category name", func(t *testing.T) {
		f := newProductFixture()
		cat, err := catalog.NewCategory("Áo thun", "")
		require.NoError(t, err)

		f.products.On("ExistsByName", ctx, "Áo thun cổ tròn", (*uuid.UUID)(nil)).Return(false, nil)
		f.categories.On("FindByID", ctx, cat.ID).Return(cat, nil)
		f.categories.On("FindAll", ctx, mock.Anything).Return([]catalog.Category{*cat}, nil)
		f.products.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)

		discount := decimal.NewFromInt(150000)
		resp, err := f.svc.Create(ctx, ProductRequest{
			Name:          "Áo thun cổ tròn",
			Price:         decimal.NewFromInt(199000),
			DiscountPrice: &discount,
			StockQuantity: 5,
			CategoryID:    &cat.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, "ao-thun-co-tron", resp.Slug)
		assert.True(t, resp.IsActive)
		assert.True(t, resp.EffectivePrice.Equal(discount))
		assert.Equal(t, "Áo thun", resp.CategoryName)
	})

	t.Run("duplicate name", func(t *testing.T) {
		f := newProductFixture()
		f.products.On("ExistsByName", ctx, "Dup", (*uuid.UUID)(nil)).Return(true, nil)

		_, err := f.svc.Create(ctx, ProductRequest{Name: "Dup", Price: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("unknown brand", func(t *testing.T) {
		f := newProductFixture()
		brandID := uuid.New()
		f.products.On("ExistsByName", ctx, "Shoe", (*uuid.UUID)(nil)).Return(false, nil)
		f.brands.On("FindByID", ctx, brandID).Return(nil, shared.ErrNotFound)

		_, err := f.svc.Create(ctx, ProductRequest{Name: "Shoe", Price: decimal.NewFromInt(1), BrandID: &brandID})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_BRAND", de.Code)
	})

	t.Run("discount not below price", func(t *testing.T) {
		f := newProductFixture()
		f.products.On("ExistsByName", ctx, "Hat", (*uuid.UUID)(nil)).Return(false, nil)
		discount := decimal.NewFromInt(10)

		_, err := f.svc.Create(ctx, ProductRequest{Name: "Hat", Price: decimal.NewFromInt(10), DiscountPrice: &discount})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_PRICE", de.Code)
		f.products.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestProductService_GetActive(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()

	active := newTestProduct(t, "Visible", 100)
	hidden := newTestProduct(t, "Hidden", 100)
	hidden.IsActive = false

	f.products.On("FindByID", ctx, active.ID).Return(active, nil)
	f.products.On("FindByID", ctx, hidden.ID).Return(hidden, nil)

	resp, err := f.svc.GetActive(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, "Visible", resp.Name)

	_, err = f.svc.GetActive(ctx, hidden.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	adminView, err := f.svc.GetByID(ctx, hidden.ID)
	require.NoError(t, err)
	assert.False(t, adminView.IsActive)
}

func TestProductService_Search_Blank(t *testing.T) {
	f := newProductFixture()
	resp, err := f.svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, resp)
	f.products.AssertNotCalled(t, "FindAll", mock.Anything, mock.Anything)
}

func TestProductService_Filter(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	catID := uuid.New()
	products := []catalog.Product{*newTestProduct(t, "A", 100), *newTestProduct(t, "B", 200)}

	match := mock.MatchedBy(func(flt shared.Filter) bool {
		return flt.Page == 2 && flt.PageSize == 2 &&
			flt.OrderBy == "price" && flt.OrderDir == "asc" &&
			flt.Search == "shirt" &&
			flt.Filters[catalog.FilterIsActive] == true &&
			flt.Filters[catalog.FilterCategoryID] == catID &&
			flt.Filters[catalog.FilterMinPrice].(decimal.Decimal).Equal(decimal.NewFromInt(50))
	})
	f.products.On("FindAll", ctx, match).Return(products, nil)
	f.products.On("Count", ctx, match).Return(int64(5), nil)

	page, err := f.svc.Filter(ctx, ProductListFilter{
		CategoryID: catID.String(),
		MinPrice:   "50",
		Name:       " shirt ",
		SortBy:     "price",
		SortOrder:  "asc",
		Page:       2,
		Limit:      2,
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
}

func TestToProductFilter(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f, err := toProductFilter(ProductListFilter{})
		require.NoError(t, err)
		assert.Equal(t, 1, f.Page)
		assert.Equal(t, DefaultProductPageSize, f.PageSize)
		assert.Equal(t, "created_at", f.OrderBy)
		assert.Equal(t, "desc", f.OrderDir)
		assert.Equal(t, true, f.Filters[catalog.FilterIsActive])
	})

	t.Run("createdAt alias and admin listing", func(t *testing.T) {
		f, err := toProductFilter(ProductListFilter{SortBy: "createdAt", SortOrder: "ASC", IncludeInactive: true})
		require.NoError(t, err)
		assert.Equal(t, "created_at", f.OrderBy)
		assert.Equal(t, "asc", f.OrderDir)
		_, ok := f.Filters[catalog.FilterIsActive]
		assert.False(t, ok)
	})

	t.Run("min above max", func(t *testing.T) {
		_, err := toProductFilter(ProductListFilter{MinPrice: "500", MaxPrice: "100"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("bad brand id", func(t *testing.T) {
		_, err := toProductFilter(ProductListFilter{BrandID: "nope"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestProductService_AttachImage(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	p := newTestProduct(t, "Camera", 1000)
	p.ImageKey = "products/2024/01/old.png"
	f.storage.objects[p.ImageKey] = pngHeader

	f.products.On("FindByID", ctx, p.ID).Return(p, nil)
	f.products.On("Save", ctx, p).Return(nil)

	resp, err := f.svc.AttachImage(ctx, p.ID, pngHeader, "camera.png", "image/png")
	require.NoError(t, err)
	assert.Contains(t, resp.Image, "https://cdn.test/products/")
	assert.NotEqual(t, "products/2024/01/old.png", p.ImageKey)
	assert.Contains(t, f.storage.deleted, "products/2024/01/old.png")

	exists, _ := f.storage.ObjectExists(ctx, p.ImageKey)
	assert.True(t, exists)
}

func TestProductService_Delete_RemovesImage(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	p := newTestProduct(t, "Lamp", 300)
	p.ImageKey = "products/2024/02/lamp.png"

	f.products.On("FindByID", ctx, p.ID).Return(p, nil)
	f.products.On("Delete", ctx, p.ID).Return(nil)

	require.NoError(t, f.svc.Delete(ctx, p.ID))
	assert.Contains(t, f.storage.deleted, "products/2024/02/lamp.png")
}
