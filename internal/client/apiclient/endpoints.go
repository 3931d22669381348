package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResult, error) {
	return Post[AuthResult](ctx, c, "/auth/register", req)
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResult, error) {
	return Post[AuthResult](ctx, c, "/auth/login", req)
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	_, err := Post[MessageData](ctx, c, "/auth/logout", nil)
	return err
}

func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	_, err := Post[MessageData](ctx, c, "/auth/change-password", req)
	return err
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	return Get[User](ctx, c, "/user/profile", nil)
}

func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (User, error) {
	return Put[User](ctx, c, "/user/profile", req)
}

func (c *Client) Cart(ctx context.Context) (*Cart, error) {
	return Get[*Cart](ctx, c, "/user/cart", nil)
}

func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*Cart, error) {
	return Post[*Cart](ctx, c, "/user/cart/add", req)
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID uuid.UUID, quantity int) (*Cart, error) {
	return Put[*Cart](ctx, c, "/user/cart/items/"+itemID.String(), UpdateCartItemRequest{Quantity: quantity})
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID uuid.UUID) (*Cart, error) {
	return Delete[*Cart](ctx, c, "/user/cart/items/"+itemID.String())
}

func (c *Client) ClearCart(ctx context.Context) error {
	_, err := Delete[*Cart](ctx, c, "/user/cart/clear")
	return err
}

// PlaceOrder checks out the current cart.
func (c *Client) PlaceOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	return Post[Order](ctx, c, "/user/orders", req)
}

func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	return Get[[]Order](ctx, c, "/user/orders", nil)
}

func (c *Client) Order(ctx context.Context, id uuid.UUID) (Order, error) {
	return Get[Order](ctx, c, "/user/orders/"+id.String(), nil)
}

// Chat sends a message to the shopping assistant.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (ChatReply, error) {
	return Post[ChatReply](ctx, c, "/chat/message", req)
}

func (c *Client) Products(ctx context.Context) ([]Product, error) {
	return Get[[]Product](ctx, c, "/products", nil)
}

func (c *Client) Product(ctx context.Context, id uuid.UUID) (Product, error) {
	return Get[Product](ctx, c, "/products/"+id.String(), nil)
}

func (c *Client) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	return Get[Product](ctx, c, "/products/slug/"+url.PathEscape(slug), nil)
}

// FilterProducts queries /products/filter; the meta carries pagination.
func (c *Client) FilterProducts(ctx context.Context, query url.Values) ([]Product, *Meta, error) {
	return Do[[]Product](ctx, c, Request{Method: http.MethodGet, Path: "/products/filter", Query: query})
}

func (c *Client) SearchProducts(ctx context.Context, q string) ([]Product, error) {
	return Get[[]Product](ctx, c, "/products/search", url.Values{"name": {q}})
}

func (c *Client) Variants(ctx context.Context, productID uuid.UUID) ([]Variant, error) {
	return Get[[]Variant](ctx, c, "/product-variants/product/"+productID.String(), nil)
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	return Get[[]Category](ctx, c, "/categories", nil)
}

func (c *Client) Brands(ctx context.Context) ([]Brand, error) {
	return Get[[]Brand](ctx, c, "/brands", nil)
}
