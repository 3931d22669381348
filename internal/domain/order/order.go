package order

import (
	"regexp"
	"strings"
	"time"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var phoneRegex = regexp.MustCompile(`^[0-9]{10,11}$`)

// ShippingAddress is where the order is delivered
type ShippingAddress struct {
	Address  string
	City     string
	District string
	Ward     string
	Phone    string
}

// Validate checks the required address fields and the phone format
func (a ShippingAddress) Validate() error {
	if strings.TrimSpace(a.Address) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Shipping address is required")
	}
	if strings.TrimSpace(a.City) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "City is required")
	}
	if strings.TrimSpace(a.District) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "District is required")
	}
	if strings.TrimSpace(a.Ward) == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Ward is required")
	}
	if !phoneRegex.MatchString(a.Phone) {
		return shared.NewDomainError("INVALID_PHONE", "Phone number must have 10 to 11 digits")
	}
	return nil
}

// Line is a product and quantity taken from the cart at checkout
type Line struct {
	ProductID    uuid.UUID
	ProductName  string
	ProductImage string
	UnitPrice    decimal.Decimal // effective price at checkout
	Quantity     int
}

// OrderDetail is an order line with the price snapshot taken at checkout
type OrderDetail struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	ProductID    uuid.UUID
	ProductName  string
	ProductImage string
	Quantity     int
	Price        decimal.Decimal
}

// Subtotal returns price × quantity
func (d OrderDetail) Subtotal() decimal.Decimal {
	return d.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
}

// Order is a placed purchase. It is the aggregate root for its details.
type Order struct {
	shared.BaseAggregateRoot
	UserID         uuid.UUID
	Details        []OrderDetail
	TotalPrice     decimal.Decimal
	ShippingFee    decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalTotal     decimal.Decimal
	Shipping       ShippingAddress
	Status         OrderStatus
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	TransactionID  string
	PaidAt         *time.Time
	Notes          string
}

// NewOrder places an order from cart lines
func NewOrder(
	userID uuid.UUID,
	lines []Line,
	shipping ShippingAddress,
	shippingFee, discount decimal.Decimal,
	method PaymentMethod,
	notes string,
) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("CART_EMPTY", "Cart is empty")
	}
	if err := shipping.Validate(); err != nil {
		return nil, err
	}
	if shippingFee.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Shipping fee cannot be negative")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Discount amount cannot be negative")
	}
	if _, err := ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		ShippingFee:       shippingFee,
		DiscountAmount:    discount,
		Shipping:          shipping,
		Status:            StatusPending,
		PaymentMethod:     method,
		PaymentStatus:     PaymentPending,
		Notes:             strings.TrimSpace(notes),
	}

	total := decimal.Zero
	o.Details = make([]OrderDetail, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
		}
		d := OrderDetail{
			ID:           uuid.New(),
			OrderID:      o.ID,
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			ProductImage: l.ProductImage,
			Quantity:     l.Quantity,
			Price:        l.UnitPrice,
		}
		o.Details = append(o.Details, d)
		total = total.Add(d.Subtotal())
	}
	o.TotalPrice = total
	o.FinalTotal = computeFinalTotal(total, shippingFee, discount)

	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

// computeFinalTotal is total + fee - discount, floored at zero
func computeFinalTotal(total, fee, discount decimal.Decimal) decimal.Decimal {
	final := total.Add(fee).Sub(discount)
	if final.IsNegative() {
		return decimal.Zero
	}
	return final
}

// UpdateStatus moves the order along its lifecycle.
// Completing a cash-on-delivery order settles its payment.
func (o *Order) UpdateStatus(status OrderStatus, notes string) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}
	if status != o.Status && !o.Status.CanTransitionTo(status) {
		return shared.NewDomainError(shared.ErrInvalidState.Code,
			"Cannot change order status from "+string(o.Status)+" to "+string(status))
	}

	from := o.Status
	o.Status = status
	if n := strings.TrimSpace(notes); n != "" {
		o.Notes = n
	}

	if status == StatusCompleted && o.PaymentMethod == PaymentCOD && o.PaymentStatus == PaymentPending {
		now := time.Now()
		o.PaymentStatus = PaymentPaid
		o.PaidAt = &now
	}

	o.IncrementVersion()
	if from != status {
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, from))
	}
	return nil
}

// BelongsTo reports whether the order was placed by the user
func (o *Order) BelongsTo(userID uuid.UUID) bool {
	return o.UserID == userID
}

// ItemCount is the number of units across all lines
func (o *Order) ItemCount() int {
	n := 0
	for _, d := range o.Details {
		n += d.Quantity
	}
	return n
}
