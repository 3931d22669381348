package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomt/storefront/internal/client/apiclient"
	"github.com/ecomt/storefront/internal/client/cart"
	"github.com/ecomt/storefront/internal/client/catalog"
	"github.com/ecomt/storefront/internal/client/session"
	domaincatalog "github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/interfaces/http/router"
	"github.com/ecomt/storefront/tests/testutil"
)

// TestMain runs before any tests and handles cleanup
func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// shopper is one signed-in client of the test server
type shopper struct {
	api     *apiclient.Client
	session *session.Manager
	cart    *cart.Mirror
	catalog *catalog.Service
}

func newShopper(t *testing.T, ts *TestServer) *shopper {
	t.Helper()
	api, err := apiclient.New(apiclient.Config{BaseURL: ts.APIBaseURL(), Timeout: 10 * time.Second})
	require.NoError(t, err)

	sess := session.NewManager(api, session.NewMemoryStore())
	mirror := cart.NewMirror(api, sess, nil)
	t.Cleanup(mirror.Close)

	return &shopper{api: api, session: sess, cart: mirror, catalog: catalog.NewService(api)}
}

func shippingTo(fee int64) apiclient.CreateOrderRequest {
	f := decimal.NewFromInt(fee)
	return apiclient.CreateOrderRequest{
		ShippingAddress:  "1 Hang Bac",
		ShippingCity:     "Thành phố Hà Nội",
		ShippingDistrict: "Quận Hoàn Kiếm",
		ShippingWard:     "Phường Hàng Bạc",
		ShippingPhone:    "0912345678",
		ShippingFee:      &f,
		PaymentMethod:    apiclient.PaymentCOD,
	}
}

func TestStorefront_HealthCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	resp, err := http.Get(ts.Server.URL + router.HealthPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStorefront_ShoppingFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	ctx := testutil.ContextWithTimeout(t, time.Minute)

	shoes := ts.SeedCategory(t, "Shoes")
	bags := ts.SeedCategory(t, "Bags")
	acme := ts.SeedBrand(t, "Acme")

	discount := decimal.NewFromInt(1000000)
	runner := ts.SeedProduct(t, domaincatalog.ProductDetails{
		Name:          "Trail Runner",
		Price:         decimal.NewFromInt(1200000),
		DiscountPrice: &discount,
		StockQuantity: 3,
		CategoryID:    &shoes.ID,
		BrandID:       &acme.ID,
	})
	ts.SeedProduct(t, domaincatalog.ProductDetails{
		Name:          "City Sneaker",
		Price:         decimal.NewFromInt(800000),
		StockQuantity: 10,
		CategoryID:    &shoes.ID,
	})
	ts.SeedProduct(t, domaincatalog.ProductDetails{
		Name:          "Canvas Tote",
		Price:         decimal.NewFromInt(300000),
		StockQuantity: 10,
		CategoryID:    &bags.ID,
	})

	ann := newShopper(t, ts)

	t.Run("register signs the shopper in", func(t *testing.T) {
		user, err := ann.session.Register(ctx, "Ann", "ann@shop.test", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "USER", user.Role)
		assert.True(t, ann.session.IsAuthenticated())
		assert.False(t, ann.session.IsAdmin())
		assert.Contains(t, ts.Events.HandledTypes(), identity.EventTypeUserRegistered)
	})

	t.Run("catalog filters and search", func(t *testing.T) {
		page, err := ann.catalog.Filter(ctx, catalog.ProductFilters{
			CategoryID: shoes.ID,
			SortBy:     catalog.SortByPrice,
			SortOrder:  catalog.SortAsc,
		})
		require.NoError(t, err)
		require.Len(t, page.Products, 2)
		assert.Equal(t, "City Sneaker", page.Products[0].Name)
		assert.Equal(t, "Trail Runner", page.Products[1].Name)
		assert.Equal(t, int64(2), page.Meta.Total)

		ceiling := decimal.NewFromInt(500000)
		page, err = ann.catalog.Filter(ctx, catalog.ProductFilters{MaxPrice: &ceiling})
		require.NoError(t, err)
		require.Len(t, page.Products, 1)
		assert.Equal(t, "Canvas Tote", page.Products[0].Name)

		found, err := ann.catalog.Search(ctx, "trail")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, runner.ID, found[0].ID)
		assert.True(t, found[0].EffectivePrice.Equal(discount))

		bySlug, err := ann.catalog.GetBySlug(ctx, runner.Slug)
		require.NoError(t, err)
		assert.Equal(t, "Acme", bySlug.BrandName)
		assert.Equal(t, "Shoes", bySlug.CategoryName)

		categories, err := ann.catalog.Categories(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 2)
	})

	t.Run("cart mirrors the server", func(t *testing.T) {
		c, err := ann.cart.Add(ctx, runner.ID, 2)
		require.NoError(t, err)
		require.Len(t, c.Items, 1)
		assert.Equal(t, 2, ann.cart.ItemCount())
		assert.True(t, ann.cart.Total().Equal(decimal.NewFromInt(2000000)), ann.cart.Total().String())

		_, err = ann.cart.Add(ctx, runner.ID, 5)
		require.Error(t, err)
		assert.True(t, apiclient.IsKind(err, apiclient.KindValidation))
		assert.Equal(t, 2, ann.cart.ItemCount(), "failed mutation keeps the snapshot")

		c, err = ann.cart.Update(ctx, c.Items[0].ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, c.TotalItems)
	})

	var placed apiclient.Order
	t.Run("checkout takes stock and empties the cart", func(t *testing.T) {
		var err error
		placed, err = ann.api.PlaceOrder(ctx, shippingTo(30000))
		require.NoError(t, err)

		assert.Equal(t, "PENDING", placed.Status)
		assert.Equal(t, "PENDING", placed.PaymentStatus)
		assert.Equal(t, 3, placed.ItemCount)
		assert.True(t, placed.FinalTotal.Equal(decimal.NewFromInt(3030000)), placed.FinalTotal.String())
		require.Len(t, placed.OrderDetails, 1)
		assert.True(t, placed.OrderDetails[0].Price.Equal(discount))

		stored, err := ts.Products.FindByID(ctx, runner.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.StockQuantity)

		c, err := ann.cart.Refresh(ctx)
		require.NoError(t, err)
		assert.Empty(t, c.Items)

		_, err = ann.api.PlaceOrder(ctx, shippingTo(0))
		require.Error(t, err)
		apiErr, ok := apiclient.AsError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)

		assert.Contains(t, ts.Events.HandledTypes(), "OrderPlaced")
	})

	t.Run("orders are private to their owner", func(t *testing.T) {
		mine, err := ann.api.Orders(ctx)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, placed.ID, mine[0].ID)

		bob := newShopper(t, ts)
		_, err = bob.session.Register(ctx, "Bob", "bob@shop.test", "secret123")
		require.NoError(t, err)

		_, err = bob.api.Order(ctx, placed.ID)
		assert.True(t, apiclient.IsKind(err, apiclient.KindForbidden), "got %v", err)

		_, err = apiclient.Get[[]apiclient.Order](ctx, bob.api, "/admin/orders", nil)
		assert.True(t, apiclient.IsKind(err, apiclient.KindForbidden), "got %v", err)
	})

	t.Run("admin completes a COD order", func(t *testing.T) {
		admin, err := identity.NewUser("Admin", "admin@shop.test", "secret123")
		require.NoError(t, err)
		require.NoError(t, admin.PromoteTo(identity.RoleAdmin))
		require.NoError(t, ts.Users.Save(ctx, admin))

		staff := newShopper(t, ts)
		_, err = staff.session.Login(ctx, "admin@shop.test", "secret123")
		require.NoError(t, err)
		require.True(t, staff.session.IsAdmin())

		path := "/admin/orders/" + placed.ID.String() + "/status"
		o, err := apiclient.Put[apiclient.Order](ctx, staff.api, path, map[string]string{"status": "PROCESSING"})
		require.NoError(t, err)
		assert.Equal(t, "PROCESSING", o.Status)

		o, err = apiclient.Put[apiclient.Order](ctx, staff.api, path, map[string]string{"status": "COMPLETED"})
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", o.Status)
		assert.Equal(t, "PAID", o.PaymentStatus)
		assert.NotNil(t, o.PaidAt)

		_, err = apiclient.Put[apiclient.Order](ctx, staff.api, path, map[string]string{"status": "PENDING"})
		assert.True(t, apiclient.IsKind(err, apiclient.KindValidation), "got %v", err)
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		token := ann.session.Token()
		ann.session.Logout(ctx)
		assert.False(t, ann.session.IsAuthenticated())

		replay, err := apiclient.New(apiclient.Config{BaseURL: ts.APIBaseURL()},
			apiclient.WithTokenSource(apiclient.TokenFunc(func() string { return token })))
		require.NoError(t, err)
		_, err = replay.Profile(context.Background())
		assert.True(t, apiclient.IsKind(err, apiclient.KindUnauthorized), "got %v", err)
	})
}

func TestStorefront_SessionRehydrate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ts := NewTestServer(t)
	ctx := testutil.ContextWithTimeout(t, time.Minute)
	store := session.NewMemoryStore()

	first, err := apiclient.New(apiclient.Config{BaseURL: ts.APIBaseURL()})
	require.NoError(t, err)
	_, err = session.NewManager(first, store).Register(ctx, "Cleo", "cleo@shop.test", "secret123")
	require.NoError(t, err)

	second, err := apiclient.New(apiclient.Config{BaseURL: ts.APIBaseURL()})
	require.NoError(t, err)
	restored := session.NewManager(second, store)

	ok, err := restored.Rehydrate(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "cleo@shop.test", restored.User().Email)

	user, err := restored.UpdateProfile(ctx, "Cleo P")
	require.NoError(t, err)
	assert.Equal(t, "Cleo P", user.Name)
}
