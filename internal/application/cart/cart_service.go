package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecomt/storefront/internal/domain/cart"
	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartService handles shopping cart operations
type CartService struct {
	cartRepo    cart.CartRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
	metrics     *telemetry.BusinessMetrics
}

// NewCartService creates a new CartService
func NewCartService(cartRepo cart.CartRepository, productRepo catalog.ProductRepository, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// SetBusinessMetrics sets the business metrics recorder
func (s *CartService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// EnsureCart creates the user's cart when it does not exist yet
func (s *CartService) EnsureCart(ctx context.Context, userID uuid.UUID) error {
	_, err := s.load(ctx, userID)
	return err
}

// Get returns the user's cart, creating an empty one on first use
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// Add puts qty units of a product in the cart. The product must be active and
// have stock for the resulting line quantity.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkAvailability(product, c.QuantityOf(product.ID)+req.Quantity); err != nil {
		return nil, err
	}

	if _, err := c.AddItem(product.ID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, telemetry.CartOperationAdd)
	return s.view(ctx, c)
}

// UpdateItem sets the quantity of one of the user's cart lines
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, ok := c.Item(itemID)
	if !ok {
		return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Cart item not found")
	}
	product, err := s.findProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkAvailability(product, req.Quantity); err != nil {
		return nil, err
	}

	if _, err := c.UpdateItem(itemID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, telemetry.CartOperationUpdate)
	return s.view(ctx, c)
}

// RemoveItem removes one of the user's cart lines
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, telemetry.CartOperationRemove)
	return s.view(ctx, c)
}

// Clear empties the user's cart
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Clear()
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	s.record(ctx, telemetry.CartOperationClear)
	return s.view(ctx, c)
}

func (s *CartService) load(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	c, err := s.cartRepo.FindByUser(ctx, userID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	c, err = cart.NewCart(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, c); err != nil {
		return nil, err
	}
	s.logger.Debug("Cart created", zap.String("user_id", userID.String()))
	return c, nil
}

func (s *CartService) findProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.ErrNotFound.Code, "Product not found")
		}
		return nil, err
	}
	return product, nil
}

func checkAvailability(p *catalog.Product, qty int) error {
	if !p.IsActive {
		return shared.NewDomainError("PRODUCT_UNAVAILABLE", "Product is not available")
	}
	if !p.CanFulfil(qty) {
		return shared.NewDomainError(shared.ErrInsufficientStock.Code,
			fmt.Sprintf("Only %d units of %s are in stock", p.StockQuantity, p.Name))
	}
	return nil
}

// view prices every line at the product's current effective price
func (s *CartService) view(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	resp := &CartResponse{
		ID:         c.ID,
		Items:      make([]CartItemResponse, 0, len(c.Items)),
		TotalPrice: decimal.Zero,
		UpdatedAt:  c.UpdatedAt,
	}
	if c.IsEmpty() {
		return resp, nil
	}

	products, err := s.productRepo.FindByIDs(ctx, c.ProductIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, item := range c.Items {
		p, ok := byID[item.ProductID]
		if !ok {
			continue
		}
		unit := p.EffectivePrice()
		subtotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		resp.Items = append(resp.Items, CartItemResponse{
			ID:        item.ID,
			Product:   toProductSummary(p),
			Quantity:  item.Quantity,
			UnitPrice: unit,
			Subtotal:  subtotal,
		})
		resp.TotalItems += item.Quantity
		resp.TotalPrice = resp.TotalPrice.Add(subtotal)
	}
	return resp, nil
}

func (s *CartService) record(ctx context.Context, op telemetry.CartOperation) {
	if s.metrics != nil {
		s.metrics.RecordCartMutation(ctx, op)
	}
}
