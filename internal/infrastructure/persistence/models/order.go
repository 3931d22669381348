package models

import (
	"time"

	"github.com/ecomt/storefront/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
type OrderModel struct {
	AggregateModel
	UserID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	TotalPrice       decimal.Decimal     `gorm:"type:decimal(15,2);not null"`
	ShippingFee      decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0"`
	DiscountAmount   decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0"`
	FinalTotal       decimal.Decimal     `gorm:"type:decimal(15,2);not null"`
	Status           order.OrderStatus   `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ShippingAddress  string              `gorm:"type:varchar(255);not null"`
	ShippingCity     string              `gorm:"type:varchar(100);not null"`
	ShippingDistrict string              `gorm:"type:varchar(100);not null"`
	ShippingWard     string              `gorm:"type:varchar(100);not null"`
	ShippingPhone    string              `gorm:"type:varchar(20);not null"`
	PaymentMethod    order.PaymentMethod `gorm:"type:varchar(20);not null"`
	PaymentStatus    order.PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	TransactionID    string              `gorm:"type:varchar(100)"`
	PaidAt           *time.Time
	Notes            string             `gorm:"type:text"`
	Details          []OrderDetailModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderDetailModel is one line of an order.
type OrderDetailModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName  string          `gorm:"type:varchar(100);not null"`
	ProductImage string          `gorm:"type:varchar(500)"`
	Quantity     int             `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:decimal(15,2);not null"`
}

// TableName returns the table name for GORM
func (OrderDetailModel) TableName() string {
	return "order_details"
}

// ToDomain converts the persistence model to a domain Order aggregate.
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserID:            m.UserID,
		TotalPrice:        m.TotalPrice,
		ShippingFee:       m.ShippingFee,
		DiscountAmount:    m.DiscountAmount,
		FinalTotal:        m.FinalTotal,
		Shipping: order.ShippingAddress{
			Address:  m.ShippingAddress,
			City:     m.ShippingCity,
			District: m.ShippingDistrict,
			Ward:     m.ShippingWard,
			Phone:    m.ShippingPhone,
		},
		Status:        m.Status,
		PaymentMethod: m.PaymentMethod,
		PaymentStatus: m.PaymentStatus,
		TransactionID: m.TransactionID,
		PaidAt:        m.PaidAt,
		Notes:         m.Notes,
		Details:       make([]order.OrderDetail, 0, len(m.Details)),
	}
	for _, d := range m.Details {
		o.Details = append(o.Details, order.OrderDetail{
			ID:           d.ID,
			OrderID:      d.OrderID,
			ProductID:    d.ProductID,
			ProductName:  d.ProductName,
			ProductImage: d.ProductImage,
			Quantity:     d.Quantity,
			Price:        d.Price,
		})
	}
	return o
}

// FromDomain populates the persistence model from a domain Order aggregate.
func (m *OrderModel) FromDomain(o *order.Order) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.UserID = o.UserID
	m.TotalPrice = o.TotalPrice
	m.ShippingFee = o.ShippingFee
	m.DiscountAmount = o.DiscountAmount
	m.FinalTotal = o.FinalTotal
	m.Status = o.Status
	m.ShippingAddress = o.Shipping.Address
	m.ShippingCity = o.Shipping.City
	m.ShippingDistrict = o.Shipping.District
	m.ShippingWard = o.Shipping.Ward
	m.ShippingPhone = o.Shipping.Phone
	m.PaymentMethod = o.PaymentMethod
	m.PaymentStatus = o.PaymentStatus
	m.TransactionID = o.TransactionID
	m.PaidAt = o.PaidAt
	m.Notes = o.Notes
	m.Details = make([]OrderDetailModel, 0, len(o.Details))
	for _, d := range o.Details {
		m.Details = append(m.Details, OrderDetailModel{
			ID:           d.ID,
			OrderID:      o.ID,
			ProductID:    d.ProductID,
			ProductName:  d.ProductName,
			ProductImage: d.ProductImage,
			Quantity:     d.Quantity,
			Price:        d.Price,
		})
	}
}
