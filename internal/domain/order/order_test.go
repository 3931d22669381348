package order

import (
	"testing"

	"github.com/ecomt/storefront/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress() ShippingAddress {
	return ShippingAddress{
		Address:  "12 Nguyen Trai",
		City:     "Ho Chi Minh",
		District: "Quan 1",
		Ward:     "Ben Thanh",
		Phone:    "0901234567",
	}
}

func testLines() []Line {
	return []Line{
		{ProductID: uuid.New(), ProductName: "Ao", UnitPrice: decimal.NewFromInt(150000), Quantity: 2},
		{ProductID: uuid.New(), ProductName: "Quan", UnitPrice: decimal.NewFromInt(250000), Quantity: 1},
	}
}

func TestNewOrder(t *testing.T) {
	userID := uuid.New()

	t.Run("computes totals", func(t *testing.T) {
		o, err := NewOrder(userID, testLines(), testAddress(),
			decimal.NewFromInt(30000), decimal.NewFromInt(50000), PaymentCOD, " call first ")

		require.NoError(t, err)
		assert.True(t, o.TotalPrice.Equal(decimal.NewFromInt(550000)))
		assert.True(t, o.FinalTotal.Equal(decimal.NewFromInt(530000)))
		assert.Equal(t, StatusPending, o.Status)
		assert.Equal(t, PaymentPending, o.PaymentStatus)
		assert.Equal(t, "call first", o.Notes)
		assert.Equal(t, 3, o.ItemCount())
		require.Len(t, o.Details, 2)
		assert.Equal(t, o.ID, o.Details[0].OrderID)
		assert.True(t, o.Details[0].Subtotal().Equal(decimal.NewFromInt(300000)))

		events := o.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeOrderPlaced, events[0].EventType())
	})

	t.Run("final total never negative", func(t *testing.T) {
		o, err := NewOrder(userID, testLines(), testAddress(),
			decimal.Zero, decimal.NewFromInt(10000000), PaymentCOD, "")

		require.NoError(t, err)
		assert.True(t, o.FinalTotal.IsZero())
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := NewOrder(userID, nil, testAddress(), decimal.Zero, decimal.Zero, PaymentCOD, "")

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "CART_EMPTY", de.Code)
	})

	t.Run("invalid phone", func(t *testing.T) {
		addr := testAddress()
		addr.Phone = "09-123"
		_, err := NewOrder(userID, testLines(), addr, decimal.Zero, decimal.Zero, PaymentCOD, "")

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_PHONE", de.Code)
	})

	t.Run("negative fee", func(t *testing.T) {
		_, err := NewOrder(userID, testLines(), testAddress(), decimal.NewFromInt(-1), decimal.Zero, PaymentCOD, "")
		assert.Error(t, err)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		_, err := NewOrder(userID, testLines(), testAddress(), decimal.Zero, decimal.Zero, PaymentMethod("CASH"), "")
		assert.Error(t, err)
	})
}

func TestOrder_UpdateStatus(t *testing.T) {
	newOrder := func(t *testing.T, method PaymentMethod) *Order {
		o, err := NewOrder(uuid.New(), testLines(), testAddress(), decimal.Zero, decimal.Zero, method, "")
		require.NoError(t, err)
		o.ClearDomainEvents()
		return o
	}

	t.Run("completing COD order marks it paid", func(t *testing.T) {
		o := newOrder(t, PaymentCOD)

		require.NoError(t, o.UpdateStatus(StatusProcessing, ""))
		require.NoError(t, o.UpdateStatus(StatusCompleted, "delivered"))

		assert.Equal(t, PaymentPaid, o.PaymentStatus)
		assert.NotNil(t, o.PaidAt)
		assert.Equal(t, "delivered", o.Notes)
		assert.Len(t, o.GetDomainEvents(), 2)
	})

	t.Run("completing online order leaves payment alone", func(t *testing.T) {
		o := newOrder(t, PaymentVNPay)

		require.NoError(t, o.UpdateStatus(StatusCompleted, ""))
		assert.Equal(t, PaymentPending, o.PaymentStatus)
		assert.Nil(t, o.PaidAt)
	})

	t.Run("terminal status cannot change", func(t *testing.T) {
		o := newOrder(t, PaymentCOD)
		require.NoError(t, o.UpdateStatus(StatusCancelled, ""))

		err := o.UpdateStatus(StatusProcessing, "")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("same status only updates notes", func(t *testing.T) {
		o := newOrder(t, PaymentCOD)
		require.NoError(t, o.UpdateStatus(StatusPending, "note"))
		assert.Equal(t, "note", o.Notes)
		assert.Empty(t, o.GetDomainEvents())
	})
}

func TestParse(t *testing.T) {
	s, err := ParseStatus("processing")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, s)

	_, err = ParseStatus("SHIPPED")
	assert.Error(t, err)

	m, err := ParsePaymentMethod("sepay")
	require.NoError(t, err)
	assert.Equal(t, PaymentSePay, m)
}
