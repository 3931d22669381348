package persistence

import (
	"testing"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormProductRepository_OrderClause(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)

	tests := []struct {
		name    string
		orderBy string
		dir     string
		want    string
	}{
		{"price sorts by selling price", "price", "asc", "ORDER BY COALESCE(discount_price, price) ASC,id ASC"},
		{"direction defaults to DESC", "price", "", "ORDER BY COALESCE(discount_price, price) DESC,id ASC"},
		{"name", "name", "DESC", "ORDER BY name DESC,id ASC"},
		{"camelCase createdAt falls back to created_at", "createdAt", "asc", "ORDER BY created_at ASC,id ASC"},
		{"discount column is not sortable", "discount_price", "asc", "ORDER BY created_at ASC,id ASC"},
		{"stock", "stock_quantity", "asc", "ORDER BY stock_quantity ASC,id ASC"},
		{"injected field falls back", "price; DROP TABLE products", "asc", "ORDER BY created_at ASC,id ASC"},
		{"injected direction falls back", "name", "asc; DROP TABLE products", "ORDER BY name DESC,id ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := shared.Unpaged(tt.orderBy, tt.dir)
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				return repo.applyOrder(tx.Model(&models.ProductModel{}), f).Find(&[]models.ProductModel{})
			})
			assert.Contains(t, sql, tt.want)
		})
	}
}

func TestGormProductRepository_PriceSortHonoursDiscount(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := t.Context()

	// by list price the jacket would come first
	seedProduct(t, repo, "Jacket", 900, 2, withDiscount(100))
	seedProduct(t, repo, "Cap", 500, 2)
	seedProduct(t, repo, "Tee", 300, 2)

	products, err := repo.FindAll(ctx, shared.Unpaged("price", "desc"))
	require.NoError(t, err)
	got := make([]string, len(products))
	for i, p := range products {
		got[i] = p.Name
	}
	assert.Equal(t, []string{"Cap", "Tee", "Jacket"}, got)

	cheap, err := repo.FindAll(ctx, shared.Unpaged("price", "asc").With(catalog.FilterMaxPrice, products[2].EffectivePrice()))
	require.NoError(t, err)
	require.Len(t, cheap, 1)
	assert.Equal(t, "Jacket", cheap[0].Name)
}

func TestApplyOrder_Whitelists(t *testing.T) {
	db := newTestDB(t)

	tests := []struct {
		name         string
		model        any
		allowed      map[string]bool
		defaultField string
		orderBy      string
		want         string
	}{
		{"orders by final total", &models.OrderModel{}, OrderSortFields, "created_at", "final_total", "ORDER BY final_total ASC"},
		{"orders by payment status", &models.OrderModel{}, OrderSortFields, "created_at", "payment_status", "ORDER BY payment_status ASC"},
		{"order subtotal is not sortable", &models.OrderModel{}, OrderSortFields, "created_at", "sub_total", "ORDER BY created_at ASC"},
		{"variants by size", &models.ProductVariantModel{}, VariantSortFields, "created_at", "size", "ORDER BY size ASC"},
		{"variant price is not sortable", &models.ProductVariantModel{}, VariantSortFields, "created_at", "price", "ORDER BY created_at ASC"},
		{"labels default to name", &models.CategoryModel{}, LabelSortFields, "name", "createdAt", "ORDER BY name ASC"},
		{"users never sort by password", &models.UserModel{}, UserSortFields, "created_at", "password", "ORDER BY created_at ASC"},
		{"users by role", &models.UserModel{}, UserSortFields, "created_at", "role", "ORDER BY role ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := shared.Unpaged(tt.orderBy, "asc")
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				return applyOrder(tx.Model(tt.model), f, tt.allowed, tt.defaultField).Find(tt.model)
			})
			assert.Contains(t, sql, tt.want)
		})
	}
}

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "DESC"},
		{"asc", "ASC"},
		{"  Asc ", "ASC"},
		{"desc", "DESC"},
		{"ascending", "DESC"},
		{"ASC; DROP TABLE orders;--", "DESC"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateSortOrder(tt.input), "input %q", tt.input)
	}
}
