package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cartapp "github.com/ecomt/storefront/internal/application/cart"
	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	chatapp "github.com/ecomt/storefront/internal/application/chat"
	identityapp "github.com/ecomt/storefront/internal/application/identity"
	orderapp "github.com/ecomt/storefront/internal/application/order"
	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/infrastructure/auth"
	"github.com/ecomt/storefront/internal/infrastructure/cache"
	"github.com/ecomt/storefront/internal/infrastructure/config"
	"github.com/ecomt/storefront/internal/infrastructure/persistence"
	"github.com/ecomt/storefront/internal/infrastructure/persistence/models"
	"github.com/ecomt/storefront/internal/interfaces/http/handler"
	"github.com/ecomt/storefront/internal/interfaces/http/middleware"
	"github.com/ecomt/storefront/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	identity.BcryptCost = bcrypt.MinCost
	middleware.SetupValidator()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

type apiServer struct {
	t      *testing.T
	engine *gin.Engine
	users  *persistence.GormUserRepository
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	users := persistence.NewGormUserRepository(db)
	carts := persistence.NewGormCartRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	brands := persistence.NewGormBrandRepository(db)
	products := persistence.NewGormProductRepository(db)
	variants := persistence.NewGormVariantRepository(db)
	orders := persistence.NewGormOrderRepository(db)

	readCache := cache.NewInMemoryReadCache(time.Minute)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-with-enough-length",
		AccessTokenExpiration: time.Hour,
		Issuer:                "storefront-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()

	cartService := cartapp.NewCartService(carts, products, nil)
	productService := catalogapp.NewProductService(products, categories, brands, nil, nil)
	categoryService := catalogapp.NewCategoryService(categories, readCache, nil)
	brandService := catalogapp.NewBrandService(brands, readCache, nil)
	chatService := chatapp.NewChatService(nil, productService, categoryService, brandService, nil)

	userService := identityapp.NewUserService(users)

	engine, _ := router.NewEngine(router.EngineOptions{
		HTTP: config.HTTPConfig{MaxBodySize: 1 << 20},
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:     jwtService,
			TokenBlacklist: blacklist,
		},
		Roles: userService,
		Handlers: router.Handlers{
			Auth:     handler.NewAuthHandler(identityapp.NewAuthService(users, cartService, jwtService, blacklist, nil, nil)),
			User:     handler.NewUserHandler(userService),
			Product:  handler.NewProductHandler(productService, nil),
			Variant:  handler.NewVariantHandler(catalogapp.NewVariantService(variants, products)),
			Category: handler.NewCategoryHandler(categoryService),
			Brand:    handler.NewBrandHandler(brandService),
			Cart:     handler.NewCartHandler(cartService),
			Order:    handler.NewOrderHandler(orderapp.NewOrderService(orders, users, persistence.NewGormTransactionScope(db), nil)),
			Chat:     handler.NewChatHandler(chatService),
			Upload:   handler.NewUploadHandler(nil),
		},
		System: handler.NewSystemHandler("test", map[string]handler.HealthChecker{
			"database": handler.HealthCheckerFunc(sqlDB.PingContext),
		}),
	})

	return &apiServer{t: t, engine: engine, users: users}
}

func (s *apiServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *apiServer) decode(env envelope, dest any) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(env.Data, dest))
}

func (s *apiServer) register(name, email string) identityapp.AuthResponse {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	var resp identityapp.AuthResponse
	s.decode(env, &resp)
	return resp
}

func (s *apiServer) login(email, password string) (int, identityapp.AuthResponse) {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	var resp identityapp.AuthResponse
	if w.Code == http.StatusOK {
		s.decode(env, &resp)
	}
	return w.Code, resp
}

// adminToken seeds an administrator directly in the store and logs in
func (s *apiServer) adminToken() string {
	s.t.Helper()
	u, err := identity.NewUser("Admin", "admin@shop.test", "secret123")
	require.NoError(s.t, err)
	require.NoError(s.t, u.PromoteTo(identity.RoleAdmin))
	require.NoError(s.t, s.users.Save(s.t.Context(), u))

	code, resp := s.login("admin@shop.test", "secret123")
	require.Equal(s.t, http.StatusOK, code)
	require.Equal(s.t, "admin", resp.Role)
	return resp.Token
}

func TestAPI_RegisterLoginProfile(t *testing.T) {
	s := newAPIServer(t)

	reg := s.register("Alice", "alice@shop.test")
	assert.Equal(t, "Bearer", reg.Type)
	assert.Equal(t, "user", reg.Role)
	assert.NotEmpty(t, reg.Token)

	w, env := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@shop.test", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_ALREADY_EXISTS", env.Error.Code)

	code, _ := s.login("alice@shop.test", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, login := s.login("alice@shop.test", "secret123")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, reg.ID, login.ID)

	w, env = s.do(http.MethodGet, "/api/v1/user/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile identityapp.UserResponse
	s.decode(env, &profile)
	assert.Equal(t, "alice@shop.test", profile.Email)

	w, env = s.do(http.MethodPut, "/api/v1/user/profile", login.Token, map[string]string{"name": "Alice B"})
	require.Equal(t, http.StatusOK, w.Code)
	s.decode(env, &profile)
	assert.Equal(t, "Alice B", profile.Name)
}

func TestAPI_AccessControl(t *testing.T) {
	s := newAPIServer(t)
	user := s.register("Bob", "bob@shop.test")

	w, env := s.do(http.MethodGet, "/api/v1/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ERR_UNAUTHORIZED", env.Error.Code)
	assert.NotEmpty(t, env.Error.RequestID)

	w, env = s.do(http.MethodGet, "/api/v1/admin/orders", user.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ERR_FORBIDDEN", env.Error.Code)

	w, env = s.do(http.MethodGet, "/api/v1/user/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ERR_TOKEN_INVALID", env.Error.Code)

	// a bad token on a public route is ignored
	w, _ = s.do(http.MethodGet, "/api/v1/products", "not-a-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/v1/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", env.Error.Code)
}

func TestAPI_LogoutRevokesToken(t *testing.T) {
	s := newAPIServer(t)
	user := s.register("Carol", "carol@shop.test")

	w, env := s.do(http.MethodPost, "/api/v1/auth/logout", user.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = s.do(http.MethodGet, "/api/v1/user/profile", user.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ERR_TOKEN_REVOKED", env.Error.Code)
}

func TestAPI_RoleChangeAppliesToIssuedTokens(t *testing.T) {
	s := newAPIServer(t)
	admin := s.adminToken()
	bob := s.register("Bob", "bob@shop.test")
	rolePath := "/api/v1/admin/users/" + bob.ID.String() + "/role"

	w, _ := s.do(http.MethodPut, rolePath, admin, map[string]string{"role": "ADMIN"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the registration token still says ROLE_USER
	w, _ = s.do(http.MethodGet, "/api/v1/admin/orders", bob.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	code, login := s.login("bob@shop.test", "secret123")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "admin", login.Role)
	w, _ = s.do(http.MethodGet, "/api/v1/admin/orders", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodPut, rolePath, admin, map[string]string{"role": "USER"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := s.do(http.MethodGet, "/api/v1/admin/orders", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ERR_FORBIDDEN", env.Error.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/admin/users", login.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// the account itself keeps working
	w, _ = s.do(http.MethodGet, "/api/v1/user/profile", login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_ChangePasswordRevokesEarlierTokens(t *testing.T) {
	s := newAPIServer(t)
	reg := s.register("Dana", "dana@shop.test")

	// no pause between registering and changing the password
	w, env := s.do(http.MethodPost, "/api/v1/auth/change-password", reg.Token, map[string]string{
		"current_password": "secret123", "new_password": "secret456",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var changed identityapp.AuthResponse
	s.decode(env, &changed)
	require.NotEmpty(t, changed.Token)

	w, env = s.do(http.MethodGet, "/api/v1/user/profile", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "ERR_TOKEN_REVOKED", env.Error.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/user/profile", changed.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	code, _ := s.login("dana@shop.test", "secret123")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, login := s.login("dana@shop.test", "secret456")
	require.Equal(t, http.StatusOK, code)
	w, _ = s.do(http.MethodGet, "/api/v1/user/profile", login.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_CatalogCheckoutAndFulfilment(t *testing.T) {
	s := newAPIServer(t)
	admin := s.adminToken()

	w, env := s.do(http.MethodPost, "/api/v1/admin/categories", admin, map[string]string{"name": "Shoes"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var category catalogapp.CategoryResponse
	s.decode(env, &category)

	w, env = s.do(http.MethodPost, "/api/v1/admin/products", admin, map[string]any{
		"name":           "Trail Runner",
		"description":    "Light trail shoe",
		"price":          "1200000",
		"discount_price": "1000000",
		"stock_quantity": 5,
		"is_active":      true,
		"category_id":    category.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var product catalogapp.ProductResponse
	s.decode(env, &product)
	assert.Equal(t, "trail-runner", product.Slug)
	assert.Equal(t, "Shoes", product.CategoryName)

	// storefront reads need no token
	w, env = s.do(http.MethodGet, "/api/v1/products/slug/trail-runner", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bySlug catalogapp.ProductResponse
	s.decode(env, &bySlug)
	assert.Equal(t, product.ID, bySlug.ID)

	w, _ = s.do(http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	shopper := s.register("Dana", "dana@shop.test")

	w, env = s.do(http.MethodPost, "/api/v1/user/cart/add", shopper.Token, map[string]any{
		"product_id": product.ID, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cart cartapp.CartResponse
	s.decode(env, &cart)
	assert.Equal(t, 2, cart.TotalItems)
	assert.Equal(t, "2000000", cart.TotalPrice.String())

	w, env = s.do(http.MethodPost, "/api/v1/user/cart/add", shopper.Token, map[string]any{
		"product_id": product.ID, "quantity": 10,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INSUFFICIENT_STOCK", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/v1/user/orders", shopper.Token, map[string]any{
		"shipping_address":  "12 Le Loi",
		"shipping_city":     "Ho Chi Minh",
		"shipping_district": "District 1",
		"shipping_ward":     "Ben Nghe",
		"shipping_phone":    "12345",
		"payment_method":    "COD",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ERR_VALIDATION", env.Error.Code)

	w, env = s.do(http.MethodPost, "/api/v1/user/orders", shopper.Token, map[string]any{
		"shipping_address":  "12 Le Loi",
		"shipping_city":     "Ho Chi Minh",
		"shipping_district": "District 1",
		"shipping_ward":     "Ben Nghe",
		"shipping_phone":    "0901234567",
		"payment_method":    "COD",
		"shipping_fee":      "30000",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var placed orderapp.OrderResponse
	s.decode(env, &placed)
	assert.Equal(t, "PENDING", placed.Status)
	assert.Equal(t, "PENDING", placed.PaymentStatus)
	assert.Equal(t, "2030000", placed.FinalTotal.String())
	assert.Equal(t, 2, placed.ItemCount)

	// the cart is emptied by checkout
	w, env = s.do(http.MethodGet, "/api/v1/user/cart", shopper.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	s.decode(env, &cart)
	assert.Empty(t, cart.Items)

	w, env = s.do(http.MethodGet, "/api/v1/products/"+product.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	s.decode(env, &product)
	assert.Equal(t, 3, product.StockQuantity)

	w, env = s.do(http.MethodPut, "/api/v1/admin/orders/"+placed.ID.String()+"/status", admin, map[string]string{
		"status": "COMPLETED",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var completed orderapp.OrderResponse
	s.decode(env, &completed)
	assert.Equal(t, "COMPLETED", completed.Status)
	assert.Equal(t, "PAID", completed.PaymentStatus)
	assert.NotNil(t, completed.PaidAt)

	w, env = s.do(http.MethodPut, "/api/v1/admin/orders/"+placed.ID.String()+"/status", admin, map[string]string{
		"status": "PENDING",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVALID_STATE", env.Error.Code)

	w, env = s.do(http.MethodGet, "/api/v1/user/orders/"+placed.ID.String(), shopper.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine orderapp.OrderResponse
	s.decode(env, &mine)
	assert.Equal(t, "PAID", mine.PaymentStatus)

	other := s.register("Eve", "eve@shop.test")
	w, env = s.do(http.MethodGet, "/api/v1/user/orders/"+placed.ID.String(), other.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ERR_FORBIDDEN", env.Error.Code)
}

func TestAPI_SystemAndChat(t *testing.T) {
	s := newAPIServer(t)

	w, env := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health handler.HealthResponse
	s.decode(env, &health)
	assert.Equal(t, "UP", health.Status)
	assert.Equal(t, "UP", health.Checks["database"])

	w, env = s.do(http.MethodGet, "/api/v1/chat/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var chatHealth chatapp.HealthResponse
	s.decode(env, &chatHealth)
	assert.False(t, chatHealth.Assistant)

	w, env = s.do(http.MethodPost, "/api/v1/chat/message", "", map[string]string{"message": "Có giày chạy bộ không?"})
	require.Equal(t, http.StatusOK, w.Code)
	var reply chatapp.MessageResponse
	s.decode(env, &reply)
	assert.Equal(t, chatapp.FallbackMessage, reply.Message)
	assert.NotEmpty(t, reply.ConversationID)

	w, env = s.do(http.MethodPost, "/api/v1/admin/upload/image", s.adminToken(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "ERR_SERVICE_UNAVAILABLE", env.Error.Code)
}
