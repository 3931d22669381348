package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/ecomt/storefront/internal/domain/catalog"
	"github.com/ecomt/storefront/internal/domain/identity"
	"github.com/ecomt/storefront/internal/domain/order"
	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/ecomt/storefront/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService handles checkout and order management
type OrderService struct {
	orderRepo order.OrderRepository
	userRepo  identity.UserRepository
	txScope   TransactionScope
	events    shared.EventPublisher
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService
func NewOrderService(
	orderRepo order.OrderRepository,
	userRepo identity.UserRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		txScope:   txScope,
		logger:    logger,
	}
}

// SetEventPublisher sets the publisher for order events
func (s *OrderService) SetEventPublisher(p shared.EventPublisher) {
	s.events = p
}

// SetBusinessMetrics sets the business metrics recorder
func (s *OrderService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// CreateFromCart places an order from the user's cart. Lines are priced at the
// effective price, stock is taken and the cart is emptied in one transaction.
func (s *OrderService) CreateFromCart(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	fee := decimalOrZero(req.ShippingFee)
	discount := decimalOrZero(req.DiscountAmount)

	var placed *order.Order
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.CartRepo().FindByUser(ctx, userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("CART_EMPTY", "Cart is empty")
			}
			return err
		}
		if c.IsEmpty() {
			return shared.NewDomainError("CART_EMPTY", "Cart is empty")
		}

		products, err := repos.ProductRepo().FindByIDs(ctx, c.ProductIDs())
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*catalog.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}

		lines := make([]order.Line, 0, len(c.Items))
		for _, item := range c.Items {
			p, ok := byID[item.ProductID]
			if !ok || !p.IsActive {
				return shared.NewDomainError("PRODUCT_UNAVAILABLE", "A product in the cart is no longer available")
			}
			if !p.CanFulfil(item.Quantity) {
				return shared.NewDomainError(shared.ErrInsufficientStock.Code,
					fmt.Sprintf("Only %d units of %s are in stock", p.StockQuantity, p.Name))
			}
			lines = append(lines, order.Line{
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductImage: p.Image,
				UnitPrice:    p.EffectivePrice(),
				Quantity:     item.Quantity,
			})
		}

		o, err := order.NewOrder(userID, lines, req.shipping(), fee, discount, method, req.Notes)
		if err != nil {
			return err
		}
		if err := repos.OrderRepo().Save(ctx, o); err != nil {
			return err
		}
		for _, l := range lines {
			if err := repos.ProductRepo().DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}

		c.Clear()
		if err := repos.CartRepo().Save(ctx, c); err != nil {
			return err
		}
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, placed)
	if s.metrics != nil {
		s.metrics.RecordOrderPlaced(ctx, string(placed.PaymentMethod), placed.FinalTotal)
	}
	s.logger.Info("Order placed",
		zap.String("order_id", placed.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("final_total", placed.FinalTotal.String()),
	)

	resp := ToOrderResponse(placed)
	return &resp, nil
}

// ListForUser returns the user's orders, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderResponse, error) {
	orders, err := s.orderRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, orders), nil
}

// GetForUser returns one of the user's orders. Orders of other users are forbidden.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.BelongsTo(userID) {
		return nil, shared.NewDomainError(shared.ErrForbidden.Code, "Order does not belong to user")
	}
	return s.toResponse(ctx, o), nil
}

// ListAll returns a page of all orders, newest first
func (s *OrderService) ListAll(ctx context.Context, filter OrderListFilter) (*shared.Paginated[OrderResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		status, err := order.ParseStatus(filter.Status)
		if err != nil {
			return nil, err
		}
		f = f.With(order.FilterStatus, string(status))
	}

	orders, err := s.orderRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.orderRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(s.toResponses(ctx, orders), total, f.Page, f.PageSize)
	return &page, nil
}

// ListByStatus returns every order in a status, newest first
func (s *OrderService) ListByStatus(ctx context.Context, status string) ([]OrderResponse, error) {
	st, err := order.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	orders, err := s.orderRepo.FindAll(ctx, shared.Unpaged("created_at", "desc").With(order.FilterStatus, string(st)))
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, orders), nil
}

// Get returns any order, for administrators
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, o), nil
}

// UpdateStatus changes the order status. Completing a COD order marks it paid.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateOrderStatusRequest) (*OrderResponse, error) {
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := o.Status
	if err := o.UpdateStatus(status, req.Notes); err != nil {
		return nil, err
	}
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, o)
	if s.metrics != nil && from != o.Status {
		s.metrics.RecordOrderStatusChanged(ctx, string(o.Status), string(o.PaymentStatus))
	}
	s.logger.Info("Order status updated",
		zap.String("order_id", o.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
	)
	return s.toResponse(ctx, o), nil
}

func (s *OrderService) toResponse(ctx context.Context, o *order.Order) *OrderResponse {
	resps := s.toResponses(ctx, []order.Order{*o})
	return &resps[0]
}

// toResponses fills user names with one lookup per distinct user
func (s *OrderService) toResponses(ctx context.Context, orders []order.Order) []OrderResponse {
	names := make(map[uuid.UUID]string)
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
		uid := orders[i].UserID
		name, seen := names[uid]
		if !seen {
			if u, err := s.userRepo.FindByID(ctx, uid); err == nil {
				name = u.Name
			} else if !errors.Is(err, shared.ErrNotFound) {
				s.logger.Warn("Failed to load order owner", zap.String("user_id", uid.String()), zap.Error(err))
			}
			names[uid] = name
		}
		out[i].UserName = name
	}
	return out
}

func (s *OrderService) publish(ctx context.Context, o *order.Order) {
	events := o.GetDomainEvents()
	o.ClearDomainEvents()
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}

func decimalOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
