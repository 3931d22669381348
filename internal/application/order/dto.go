package order

import (
	"time"

	"github.com/ecomt/storefront/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest checks out the caller's cart
type CreateOrderRequest struct {
	ShippingAddress  string           `json:"shipping_address" binding:"required,max=255"`
	ShippingCity     string           `json:"shipping_city" binding:"required,max=100"`
	ShippingDistrict string           `json:"shipping_district" binding:"required,max=100"`
	ShippingWard     string           `json:"shipping_ward" binding:"required,max=100"`
	ShippingPhone    string           `json:"shipping_phone" binding:"required,vnphone"`
	ShippingFee      *decimal.Decimal `json:"shipping_fee"`
	DiscountAmount   *decimal.Decimal `json:"discount_amount"`
	PaymentMethod    string           `json:"payment_method" binding:"required,oneof=COD VNPAY SEPAY"`
	Notes            string           `json:"notes" binding:"max=1000"`
}

func (r CreateOrderRequest) shipping() order.ShippingAddress {
	return order.ShippingAddress{
		Address:  r.ShippingAddress,
		City:     r.ShippingCity,
		District: r.ShippingDistrict,
		Ward:     r.ShippingWard,
		Phone:    r.ShippingPhone,
	}
}

// UpdateOrderStatusRequest moves an order along its lifecycle
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING PROCESSING COMPLETED CANCELLED"`
	Notes  string `json:"notes" binding:"max=1000"`
}

// OrderListFilter is the admin order listing query
type OrderListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=PENDING PROCESSING COMPLETED CANCELLED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OrderDetailResponse is one order line
type OrderDetailResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               uuid.UUID             `json:"id"`
	UserID           uuid.UUID             `json:"user_id"`
	UserName         string                `json:"user_name,omitempty"`
	TotalPrice       decimal.Decimal       `json:"total_price"`
	Status           string                `json:"status"`
	ShippingAddress  string                `json:"shipping_address"`
	ShippingCity     string                `json:"shipping_city"`
	ShippingDistrict string                `json:"shipping_district"`
	ShippingWard     string                `json:"shipping_ward"`
	ShippingPhone    string                `json:"shipping_phone"`
	ShippingFee      decimal.Decimal       `json:"shipping_fee"`
	PaymentMethod    string                `json:"payment_method"`
	PaymentStatus    string                `json:"payment_status"`
	TransactionID    string                `json:"transaction_id,omitempty"`
	PaidAt           *time.Time            `json:"paid_at,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	DiscountAmount   decimal.Decimal       `json:"discount_amount"`
	FinalTotal       decimal.Decimal       `json:"final_total"`
	ItemCount        int                   `json:"item_count"`
	OrderDetails     []OrderDetailResponse `json:"order_details"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *order.Order) OrderResponse {
	details := make([]OrderDetailResponse, len(o.Details))
	for i, d := range o.Details {
		details[i] = OrderDetailResponse{
			ID:           d.ID,
			ProductID:    d.ProductID,
			ProductName:  d.ProductName,
			ProductImage: d.ProductImage,
			Quantity:     d.Quantity,
			Price:        d.Price,
			Subtotal:     d.Subtotal(),
		}
	}
	return OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		TotalPrice:       o.TotalPrice,
		Status:           string(o.Status),
		ShippingAddress:  o.Shipping.Address,
		ShippingCity:     o.Shipping.City,
		ShippingDistrict: o.Shipping.District,
		ShippingWard:     o.Shipping.Ward,
		ShippingPhone:    o.Shipping.Phone,
		ShippingFee:      o.ShippingFee,
		PaymentMethod:    string(o.PaymentMethod),
		PaymentStatus:    string(o.PaymentStatus),
		TransactionID:    o.TransactionID,
		PaidAt:           o.PaidAt,
		Notes:            o.Notes,
		DiscountAmount:   o.DiscountAmount,
		FinalTotal:       o.FinalTotal,
		ItemCount:        o.ItemCount(),
		OrderDetails:     details,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
