// Package cart mirrors the signed-in user's server cart on the client.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ecomt/storefront/internal/client/apiclient"
	"github.com/ecomt/storefront/internal/client/session"
)

// ErrNotAuthenticated is returned by mutations attempted while signed out.
var ErrNotAuthenticated = errors.New("sign in to use the cart")

// Session is the part of the auth session the mirror depends on.
type Session interface {
	IsAuthenticated() bool
	OnChange(fn session.Listener) func()
}

// Mirror owns the local copy of the server cart. Every mutation goes to the
// server and the snapshot is replaced by the server's answer.
type Mirror struct {
	api         *apiclient.Client
	session     Session
	logger      *zap.Logger
	unsubscribe func()

	mu       sync.RWMutex
	snapshot *apiclient.Cart
	inflight int
	seq      uint64
	applied  uint64
}

// NewMirror creates a mirror that resets itself when the session ends.
func NewMirror(api *apiclient.Client, sess Session, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Mirror{api: api, session: sess, logger: logger}
	m.unsubscribe = sess.OnChange(func(user *apiclient.User) {
		if user == nil {
			m.Reset()
		}
	})
	return m
}

// Close detaches the mirror from the session.
func (m *Mirror) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Refresh reloads the cart. Signed out it clears the snapshot and does nothing else.
func (m *Mirror) Refresh(ctx context.Context) (*apiclient.Cart, error) {
	if !m.session.IsAuthenticated() {
		m.Reset()
		return nil, nil
	}
	return m.apply(func() (*apiclient.Cart, error) {
		return m.api.Cart(ctx)
	})
}

// Add puts quantity units of a product into the cart.
func (m *Mirror) Add(ctx context.Context, productID uuid.UUID, quantity int) (*apiclient.Cart, error) {
	if !m.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return m.apply(func() (*apiclient.Cart, error) {
		return m.api.AddToCart(ctx, apiclient.AddToCartRequest{ProductID: productID, Quantity: quantity})
	})
}

// Update sets the quantity of a line; zero or less removes it.
func (m *Mirror) Update(ctx context.Context, itemID uuid.UUID, quantity int) (*apiclient.Cart, error) {
	if quantity <= 0 {
		return m.Remove(ctx, itemID)
	}
	if !m.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return m.apply(func() (*apiclient.Cart, error) {
		return m.api.UpdateCartItem(ctx, itemID, quantity)
	})
}

// Remove deletes a line.
func (m *Mirror) Remove(ctx context.Context, itemID uuid.UUID) (*apiclient.Cart, error) {
	if !m.session.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}
	return m.apply(func() (*apiclient.Cart, error) {
		return m.api.RemoveCartItem(ctx, itemID)
	})
}

// Clear empties the server cart and drops the snapshot.
func (m *Mirror) Clear(ctx context.Context) error {
	if !m.session.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	_, err := m.apply(func() (*apiclient.Cart, error) {
		if err := m.api.ClearCart(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// apply runs call and installs its result unless a newer call or a reset
// has already replaced the snapshot.
func (m *Mirror) apply(call func() (*apiclient.Cart, error)) (*apiclient.Cart, error) {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.inflight++
	m.mu.Unlock()

	cart, err := call()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight--
	if err != nil {
		m.logger.Debug("Cart call failed", zap.Error(err))
		return nil, err
	}
	if seq > m.applied {
		m.applied = seq
		m.snapshot = cart
	}
	return copyCart(cart), nil
}

// Reset drops the snapshot and invalidates calls still in flight.
func (m *Mirror) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.applied = m.seq
	m.snapshot = nil
}

// Snapshot returns a copy of the current cart, or nil.
func (m *Mirror) Snapshot() *apiclient.Cart {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyCart(m.snapshot)
}

// ItemCount is the number of units in the cart.
func (m *Mirror) ItemCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return 0
	}
	n := 0
	for _, item := range m.snapshot.Items {
		n += item.Quantity
	}
	return n
}

// Total is the cart total as computed by the server.
func (m *Mirror) Total() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.snapshot == nil {
		return decimal.Zero
	}
	return m.snapshot.TotalPrice
}

// Loading reports whether a cart call is in flight.
func (m *Mirror) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inflight > 0
}

func copyCart(c *apiclient.Cart) *apiclient.Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]apiclient.CartItem(nil), c.Items...)
	return &cp
}
