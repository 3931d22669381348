package order

import (
	"strings"

	"github.com/ecomt/storefront/internal/domain/shared"
)

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusProcessing OrderStatus = "PROCESSING"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the order may move from s to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseStatus parses a status case-insensitively
func ParseStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+s)
	}
	return st, nil
}

// PaymentMethod is how the shopper pays
type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "COD"
	PaymentVNPay PaymentMethod = "VNPAY"
	PaymentSePay PaymentMethod = "SEPAY"
)

// ParsePaymentMethod parses a payment method case-insensitively
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case PaymentCOD, PaymentVNPay, PaymentSePay:
		return m, nil
	}
	return "", shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method must be COD, VNPAY or SEPAY")
}

// PaymentStatus tracks settlement of an order
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)
