package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomt/storefront/internal/client/apiclient"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductFilters_Values(t *testing.T) {
	t.Run("empty filters send nothing", func(t *testing.T) {
		assert.Empty(t, ProductFilters{}.Values())
	})

	t.Run("only set fields are sent", func(t *testing.T) {
		cat := uuid.New()
		v := ProductFilters{
			CategoryID: cat,
			MaxPrice:   dec("500000"),
			Name:       "  shoe ",
			SortBy:     SortByPrice,
			SortOrder:  SortAsc,
			Page:       2,
		}.Values()

		assert.Equal(t, url.Values{
			"categoryId": {cat.String()},
			"maxPrice":   {"500000"},
			"name":       {"shoe"},
			"sortBy":     {"price"},
			"sortOrder":  {"asc"},
			"page":       {"2"},
		}, v)
	})

	t.Run("zero min price is still sent", func(t *testing.T) {
		v := ProductFilters{MinPrice: dec("0")}.Values()
		assert.Equal(t, "0", v.Get("minPrice"))
	})
}

func TestProductFilters_Normalize(t *testing.T) {
	f := ProductFilters{}.Normalize()
	assert.Equal(t, SortByCreatedAt, f.SortBy)
	assert.Equal(t, SortDesc, f.SortOrder)

	f = ProductFilters{SortBy: SortByName, SortOrder: "ASC"}.Normalize()
	assert.Equal(t, SortByName, f.SortBy)
	assert.Equal(t, SortAsc, f.SortOrder)
}

func TestProductFilters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filters ProductFilters
		wantErr bool
	}{
		{"empty", ProductFilters{}, false},
		{"full", ProductFilters{SortBy: SortByPrice, SortOrder: "DESC", MinPrice: dec("1"), MaxPrice: dec("2"), Limit: 20}, false},
		{"bad sort field", ProductFilters{SortBy: "rating"}, true},
		{"bad sort order", ProductFilters{SortOrder: "up"}, true},
		{"negative price", ProductFilters{MinPrice: dec("-1")}, true},
		{"inverted range", ProductFilters{MinPrice: dec("10"), MaxPrice: dec("5")}, true},
		{"limit too large", ProductFilters{Limit: 101}, true},
		{"negative page", ProductFilters{Page: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filters.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyLocal(t *testing.T) {
	shoes, bags := uuid.New(), uuid.New()
	nike := uuid.New()
	now := time.Now()

	products := []apiclient.Product{
		{Name: "Runner", Price: decimal.NewFromInt(300), DiscountPrice: dec("250"), CategoryID: &shoes, BrandID: &nike, CreatedAt: now.Add(-3 * time.Hour)},
		{Name: "Boot", Price: decimal.NewFromInt(400), CategoryID: &shoes, CreatedAt: now.Add(-1 * time.Hour)},
		{Name: "Tote", Price: decimal.NewFromInt(100), CategoryID: &bags, CreatedAt: now.Add(-2 * time.Hour)},
		{Name: "Loose", Price: decimal.NewFromInt(50), CreatedAt: now},
	}

	names := func(ps []apiclient.Product) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name
		}
		return out
	}

	t.Run("default sort is newest first", func(t *testing.T) {
		assert.Equal(t, []string{"Loose", "Boot", "Tote", "Runner"}, names(ApplyLocal(products, ProductFilters{})))
	})

	t.Run("category", func(t *testing.T) {
		got := ApplyLocal(products, ProductFilters{CategoryID: shoes, SortBy: SortByName, SortOrder: SortAsc})
		assert.Equal(t, []string{"Boot", "Runner"}, names(got))
	})

	t.Run("brand", func(t *testing.T) {
		assert.Equal(t, []string{"Runner"}, names(ApplyLocal(products, ProductFilters{BrandID: nike})))
	})

	t.Run("price range uses discount price", func(t *testing.T) {
		got := ApplyLocal(products, ProductFilters{MinPrice: dec("200"), MaxPrice: dec("260"), SortBy: SortByPrice})
		assert.Equal(t, []string{"Runner"}, names(got))
	})

	t.Run("price ascending", func(t *testing.T) {
		got := ApplyLocal(products, ProductFilters{SortBy: SortByPrice, SortOrder: SortAsc})
		assert.Equal(t, []string{"Loose", "Tote", "Runner", "Boot"}, names(got))
	})

	t.Run("name contains, case-insensitive", func(t *testing.T) {
		assert.Equal(t, []string{"Boot"}, names(ApplyLocal(products, ProductFilters{Name: "BOO"})))
	})

	t.Run("input is not modified", func(t *testing.T) {
		_ = ApplyLocal(products, ProductFilters{SortBy: SortByName, SortOrder: SortAsc})
		assert.Equal(t, "Runner", products[0].Name)
	})
}

func TestEffectivePrice(t *testing.T) {
	assert.Equal(t, "90", EffectivePrice(apiclient.Product{Price: decimal.NewFromInt(100), EffectivePrice: decimal.NewFromInt(90)}).String())
	assert.Equal(t, "80", EffectivePrice(apiclient.Product{Price: decimal.NewFromInt(100), DiscountPrice: dec("80")}).String())
	assert.Equal(t, "100", EffectivePrice(apiclient.Product{Price: decimal.NewFromInt(100), DiscountPrice: dec("120")}).String())
	assert.Equal(t, "100", EffectivePrice(apiclient.Product{Price: decimal.NewFromInt(100)}).String())
}

func TestService_Filter(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/products/filter", r.URL.Path)
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []map[string]any{{"name": "Runner", "price": "300"}},
			"meta":    map[string]any{"total": 1, "page": 1, "page_size": 12, "total_pages": 1},
		})
	}))
	defer srv.Close()

	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api/v1"})
	require.NoError(t, err)
	svc := NewService(api)

	page, err := svc.Filter(context.Background(), ProductFilters{Name: "run", Limit: 12})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, int64(1), page.Meta.Total)

	assert.Equal(t, "run", query.Get("name"))
	assert.Equal(t, "createdAt", query.Get("sortBy"))
	assert.Equal(t, "desc", query.Get("sortOrder"))
	assert.Equal(t, "12", query.Get("limit"))

	_, err = svc.Filter(context.Background(), ProductFilters{SortBy: "rating"})
	assert.Error(t, err)
}

func TestService_SearchSkipsBlankQuery(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "shoe", r.URL.Query().Get("name"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []map[string]any{{"name": "Shoe"}}})
	}))
	defer srv.Close()

	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api/v1"})
	require.NoError(t, err)
	svc := NewService(api)

	got, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, calls)

	got, err = svc.Search(context.Background(), " shoe ")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, calls)
}
