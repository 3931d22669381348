package integration

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	cartapp "github.com/ecomt/storefront/internal/application/cart"
	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	chatapp "github.com/ecomt/storefront/internal/application/chat"
	identityapp "github.com/ecomt/storefront/internal/application/identity"
	orderapp "github.com/ecomt/storefront/internal/application/order"
	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/infrastructure/auth"
	"github.com/ecomt/storefront/internal/infrastructure/cache"
	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/ecomt/storefront/internal/infrastructure/event"
	"github.com/ecomt/storefront/internal/infrastructure/persistence"
	"github.com/ecomt/storefront/internal/interfaces/http/handler"
	"github.com/ecomt/storefront/internal/interfaces/http/middleware"
	"github.com/ecomt/storefront/internal/interfaces/http/router"
	"github.com/ecomt/storefront/tests/testutil"
)

// TestServer serves the full API over HTTP on top of a PostgreSQL database
type TestServer struct {
	DB       *TestDB
	Server   *httptest.Server
	Events   *testutil.MockEventHandler
	Products *persistence.GormProductRepository
	Users    *persistence.GormUserRepository

	categories *persistence.GormCategoryRepository
	brands     *persistence.GormBrandRepository
}

// NewTestServer wires repositories, services and the router the way the
// server binary does, minus Redis, object storage and the assistant.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	middleware.SetupValidator()

	tdb := NewTestDB(t)
	db := tdb.DB

	users := persistence.NewGormUserRepository(db)
	carts := persistence.NewGormCartRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	brands := persistence.NewGormBrandRepository(db)
	products := persistence.NewGormProductRepository(db)
	variants := persistence.NewGormVariantRepository(db)
	orders := persistence.NewGormOrderRepository(db)

	events := testutil.NewMockEventHandler()
	bus := event.NewInMemoryEventBus(nil)
	bus.Subscribe(events)

	readCache := cache.NewInMemoryReadCache(time.Minute)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-with-enough-length",
		AccessTokenExpiration: time.Hour,
		Issuer:                "storefront-integration",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	cartService := cartapp.NewCartService(carts, products, nil)
	productService := catalogapp.NewProductService(products, categories, brands, nil, nil)
	categoryService := catalogapp.NewCategoryService(categories, readCache, nil)
	brandService := catalogapp.NewBrandService(brands, readCache, nil)
	orderService := orderapp.NewOrderService(orders, users, persistence.NewGormTransactionScope(db), nil)
	orderService.SetEventPublisher(bus)

	userService := identityapp.NewUserService(users)

	engine, _ := router.NewEngine(router.EngineOptions{
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 20},
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
		},
		Roles: userService,
		Handlers: router.Handlers{
			Auth:     handler.NewAuthHandler(identityapp.NewAuthService(users, cartService, jwtService, blacklist, bus, nil)),
			User:     handler.NewUserHandler(userService),
			Product:  handler.NewProductHandler(productService, nil),
			Variant:  handler.NewVariantHandler(catalogapp.NewVariantService(variants, products)),
			Category: handler.NewCategoryHandler(categoryService),
			Brand:    handler.NewBrandHandler(brandService),
			Cart:     handler.NewCartHandler(cartService),
			Order:    handler.NewOrderHandler(orderService),
			Chat:     handler.NewChatHandler(chatapp.NewChatService(nil, productService, categoryService, brandService, nil)),
			Upload:   handler.NewUploadHandler(nil),
		},
		System: handler.NewSystemHandler("integration", map[string]handler.HealthChecker{
			"database": handler.HealthCheckerFunc(tdb.SqlDB.PingContext),
		}),
	})

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	return &TestServer{
		DB:         tdb,
		Server:     srv,
		Events:     events,
		Products:   products,
		Users:      users,
		categories: categories,
		brands:     brands,
	}
}

// APIBaseURL is the versioned API root served by the test server
func (ts *TestServer) APIBaseURL() string {
	return ts.Server.URL + "/api/v1"
}

// SeedCategory stores a category directly in the database
func (ts *TestServer) SeedCategory(t *testing.T, name string) *catalog.Category {
	t.Helper()
	c, err := catalog.NewCategory(name, "")
	require.NoError(t, err)
	require.NoError(t, ts.categories.Save(t.Context(), c))
	return c
}

// SeedBrand stores a brand directly in the database
func (ts *TestServer) SeedBrand(t *testing.T, name string) *catalog.Brand {
	t.Helper()
	b, err := catalog.NewBrand(name, "")
	require.NoError(t, err)
	require.NoError(t, ts.brands.Save(t.Context(), b))
	return b
}

// SeedProduct stores an active product directly in the database
func (ts *TestServer) SeedProduct(t *testing.T, d catalog.ProductDetails) *catalog.Product {
	t.Helper()
	d.IsActive = true
	if d.Price.IsZero() {
		d.Price = decimal.NewFromInt(100000)
	}
	p, err := catalog.NewProduct(d)
	require.NoError(t, err)
	require.NoError(t, ts.Products.Save(t.Context(), p))
	return p
}
