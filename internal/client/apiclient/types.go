package apiclient

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Meta is the pagination block of a list response.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Role values as the client normalises them.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User is the authenticated account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
}

// User extracts the account part of the auth result.
func (r AuthResult) User() User {
	return User{ID: r.ID, Name: r.Name, Email: r.Email, Role: r.Role}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// MessageData is the payload of message-only responses.
type MessageData struct {
	Message string `json:"message"`
}

// Product as listed by the catalog endpoints.
type Product struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	Image          string           `json:"image"`
	StockQuantity  int              `json:"stock_quantity"`
	IsActive       bool             `json:"is_active"`
	CategoryID     *uuid.UUID       `json:"category_id,omitempty"`
	CategoryName   string           `json:"category_name,omitempty"`
	BrandID        *uuid.UUID       `json:"brand_id,omitempty"`
	BrandName      string           `json:"brand_name,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Category of products.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// Brand of products.
type Brand struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// Variant is a size/colour option of a product.
type Variant struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	Size          string    `json:"size"`
	Color         string    `json:"color"`
	StockQuantity int       `json:"stock_quantity"`
	Image         string    `json:"image"`
	IsActive      bool      `json:"is_active"`
}

// CartProduct is the product summary embedded in a cart line.
type CartProduct struct {
	ID             uuid.UUID        `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Image          string           `json:"image"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	EffectivePrice decimal.Decimal  `json:"effective_price"`
	StockQuantity  int              `json:"stock_quantity"`
	IsActive       bool             `json:"is_active"`
}

type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	Product   CartProduct     `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Cart is the server cart of the current user.
type Cart struct {
	ID         uuid.UUID       `json:"id"`
	Items      []CartItem      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type AddToCartRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// Payment methods accepted by checkout.
const (
	PaymentCOD   = "COD"
	PaymentVNPay = "VNPAY"
	PaymentSePay = "SEPAY"
)

// CreateOrderRequest places an order from the current cart.
type CreateOrderRequest struct {
	ShippingAddress  string           `json:"shipping_address"`
	ShippingCity     string           `json:"shipping_city"`
	ShippingDistrict string           `json:"shipping_district"`
	ShippingWard     string           `json:"shipping_ward"`
	ShippingPhone    string           `json:"shipping_phone"`
	ShippingFee      *decimal.Decimal `json:"shipping_fee,omitempty"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount,omitempty"`
	PaymentMethod    string           `json:"payment_method"`
	Notes            string           `json:"notes,omitempty"`
}

type OrderDetail struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type Order struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	TotalPrice       decimal.Decimal `json:"total_price"`
	Status           string          `json:"status"`
	ShippingAddress  string          `json:"shipping_address"`
	ShippingCity     string          `json:"shipping_city"`
	ShippingDistrict string          `json:"shipping_district"`
	ShippingWard     string          `json:"shipping_ward"`
	ShippingPhone    string          `json:"shipping_phone"`
	ShippingFee      decimal.Decimal `json:"shipping_fee"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentStatus    string          `json:"payment_status"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	FinalTotal       decimal.Decimal `json:"final_total"`
	ItemCount        int             `json:"item_count"`
	OrderDetails     []OrderDetail   `json:"order_details"`
	CreatedAt        time.Time       `json:"created_at"`
}

type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type ChatProduct struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Price string    `json:"price"`
	Image string    `json:"image"`
}

type ChatLabel struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ChatReply is the assistant's answer.
type ChatReply struct {
	Message             string        `json:"message"`
	ConversationID      string        `json:"conversation_id"`
	Timestamp           time.Time     `json:"timestamp"`
	SuggestedProducts   []ChatProduct `json:"suggested_products"`
	SuggestedCategories []ChatLabel   `json:"suggested_categories"`
	SuggestedBrands     []ChatLabel   `json:"suggested_brands"`
}
