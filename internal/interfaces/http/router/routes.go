package router

import (
	"github.com/ecomt/storefront/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the API handlers mounted under /api/v1
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Product  *handler.ProductHandler
	Variant  *handler.VariantHandler
	Category *handler.CategoryHandler
	Brand    *handler.BrandHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Chat     *handler.ChatHandler
	Upload   *handler.UploadHandler
}

// Guards are the per-group middleware of the API
type Guards struct {
	// Authenticated rejects anonymous callers on /user
	Authenticated gin.HandlerFunc
	// Admin restricts /admin to administrators
	Admin gin.HandlerFunc
	// Credentials rate-limits login and registration; nil disables it
	Credentials gin.HandlerFunc
}

// StorefrontRoutes builds the API route table
func StorefrontRoutes(h Handlers, g Guards) []RouteRegistrar {
	return []RouteRegistrar{
		authRoutes(h, g),
		catalogRoutes(h),
		userRoutes(h, g),
		adminRoutes(h, g),
	}
}

func withGuard(guard gin.HandlerFunc, handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	if guard == nil {
		return handlers
	}
	return append([]gin.HandlerFunc{guard}, handlers...)
}

func authRoutes(h Handlers, g Guards) *DomainGroup {
	auth := NewDomainGroup("auth", "/auth")
	auth.PublicPOST("/register", withGuard(g.Credentials, h.Auth.Register)...)
	auth.PublicPOST("/login", withGuard(g.Credentials, h.Auth.Login)...)
	auth.POST("/change-password", h.Auth.ChangePassword)
	auth.POST("/logout", h.Auth.Logout)
	return auth
}

// catalogRoutes are the read-only storefront endpoints plus the assistant
func catalogRoutes(h Handlers) *DomainGroup {
	root := NewDomainGroup("catalog", "")

	products := root.Group("products", "/products")
	products.PublicGET("", h.Product.ListActive)
	products.PublicGET("/filter", h.Product.Filter)
	products.PublicGET("/search", h.Product.Search)
	products.PublicGET("/slug/:slug", h.Product.GetBySlug)
	products.PublicGET("/category/:id", h.Product.ListByCategory)
	products.PublicGET("/brand/:id", h.Product.ListByBrand)
	products.PublicGET("/:id", h.Product.GetActive)

	categories := root.Group("categories", "/categories")
	categories.PublicGET("", h.Category.List)
	categories.PublicGET("/:id", h.Category.Get)

	brands := root.Group("brands", "/brands")
	brands.PublicGET("", h.Brand.List)
	brands.PublicGET("/:id", h.Brand.Get)

	variants := root.Group("product-variants", "/product-variants")
	variants.PublicGET("", h.Variant.List)
	variants.PublicGET("/product/:id", h.Variant.ListByProduct)
	variants.PublicGET("/:id", h.Variant.Get)

	chat := root.Group("chat", "/chat")
	chat.PublicPOST("/message", h.Chat.Message)
	chat.PublicGET("/health", h.Chat.Health)

	return root
}

func userRoutes(h Handlers, g Guards) *DomainGroup {
	user := NewDomainGroup("user", "/user")
	if g.Authenticated != nil {
		user.Use(g.Authenticated)
	}
	user.GET("/profile", h.User.GetProfile)
	user.PUT("/profile", h.User.UpdateProfile)

	cart := user.Group("cart", "/cart")
	cart.GET("", h.Cart.Get)
	cart.POST("/add", h.Cart.Add)
	cart.PUT("/items/:id", h.Cart.UpdateItem)
	cart.DELETE("/items/:id", h.Cart.RemoveItem)
	cart.DELETE("/clear", h.Cart.Clear)

	orders := user.Group("orders", "/orders")
	orders.GET("", h.Order.ListMine)
	orders.POST("", h.Order.Create)
	orders.GET("/:id", h.Order.GetMine)

	return user
}

func adminRoutes(h Handlers, g Guards) *DomainGroup {
	admin := NewDomainGroup("admin", "/admin")
	if g.Admin != nil {
		admin.Use(g.Admin)
	}

	products := admin.Group("products", "/products")
	products.GET("", h.Product.ListAll)
	products.GET("/filter", h.Product.AdminFilter)
	products.GET("/:id", h.Product.GetByID)
	products.POST("", h.Product.Create)
	products.PUT("/:id", h.Product.Update)
	products.DELETE("/:id", h.Product.Delete)
	products.POST("/:id/image", h.Product.UploadImage)

	categories := admin.Group("categories", "/categories")
	categories.POST("", h.Category.Create)
	categories.PUT("/:id", h.Category.Update)
	categories.DELETE("/:id", h.Category.Delete)

	brands := admin.Group("brands", "/brands")
	brands.POST("", h.Brand.Create)
	brands.PUT("/:id", h.Brand.Update)
	brands.DELETE("/:id", h.Brand.Delete)

	variants := admin.Group("product-variants", "/product-variants")
	variants.POST("", h.Variant.Create)
	variants.PUT("/:id", h.Variant.Update)
	variants.DELETE("/:id", h.Variant.Delete)

	orders := admin.Group("orders", "/orders")
	orders.GET("", h.Order.ListAll)
	orders.GET("/status/:status", h.Order.ListByStatus)
	orders.GET("/:id", h.Order.Get)
	orders.PUT("/:id/status", h.Order.UpdateStatus)

	users := admin.Group("users", "/users")
	users.GET("", h.User.List)
	users.PUT("/:id/role", h.User.UpdateRole)

	upload := admin.Group("upload", "/upload")
	upload.POST("/image", h.Upload.Upload)
	upload.DELETE("/image/*key", h.Upload.Delete)
	upload.GET("/image-url/*key", h.Upload.URL)

	return admin
}
