package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssistant struct {
	answer string
	err    error
	prompt string
}

func (a *stubAssistant) Generate(_ context.Context, prompt string) (string, error) {
	a.prompt = prompt
	return a.answer, a.err
}

type stubCatalog struct {
	products   []catalogapp.ProductResponse
	categories []catalogapp.CategoryResponse
	brands     []catalogapp.BrandResponse
	err        error
}

func (c *stubCatalog) ListActive(context.Context) ([]catalogapp.ProductResponse, error) {
	return c.products, c.err
}

type categoryStub struct{ *stubCatalog }

func (c categoryStub) List(context.Context) ([]catalogapp.CategoryResponse, error) {
	return c.categories, nil
}

type brandStub struct{ *stubCatalog }

func (b brandStub) List(context.Context) ([]catalogapp.BrandResponse, error) {
	return b.brands, nil
}

func newStore() *stubCatalog {
	return &stubCatalog{
		products: []catalogapp.ProductResponse{
			{ID: uuid.New(), Name: "Áo thun Basic", Price: decimal.NewFromInt(150000), Description: "cotton", CategoryName: "Áo", BrandName: "Nike"},
			{ID: uuid.New(), Name: "Quần jean", Price: decimal.NewFromInt(400000), CategoryName: "Quần", BrandName: "Levi's"},
			{ID: uuid.New(), Name: "Giày chạy bộ", Price: decimal.NewFromInt(900000), CategoryName: "Giày", BrandName: "Nike"},
		},
		categories: []catalogapp.CategoryResponse{{ID: uuid.New(), Name: "Áo"}, {ID: uuid.New(), Name: "Quần"}, {ID: uuid.New(), Name: "Giày"}},
		brands:     []catalogapp.BrandResponse{{ID: uuid.New(), Name: "Nike"}, {ID: uuid.New(), Name: "Levi's"}},
	}
}

func newService(a Assistant, store *stubCatalog) *ChatService {
	svc := NewChatService(a, store, categoryStub{store}, brandStub{store}, nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestChatService_Reply(t *testing.T) {
	ctx := context.Background()

	t.Run("answers with store context and suggestions", func(t *testing.T) {
		store := newStore()
		assistant := &stubAssistant{answer: "Bạn có thể xem các sản phẩm Nike."}
		svc := newService(assistant, store)

		resp := svc.Reply(ctx, MessageRequest{Message: "Tôi muốn mua đồ NIKE", ConversationID: "conv-1"})

		assert.Equal(t, "Bạn có thể xem các sản phẩm Nike.", resp.Message)
		assert.Equal(t, "conv-1", resp.ConversationID)
		assert.Equal(t, 2024, resp.Timestamp.Year())
		require.Len(t, resp.SuggestedProducts, 2)
		assert.Equal(t, "Áo thun Basic", resp.SuggestedProducts[0].Name)
		assert.Equal(t, "150000 VND", resp.SuggestedProducts[0].Price)
		require.Len(t, resp.SuggestedBrands, 1)
		assert.Equal(t, "Nike", resp.SuggestedBrands[0].Name)
		assert.Empty(t, resp.SuggestedCategories)

		assert.Contains(t, assistant.prompt, "DANH MỤC SẢN PHẨM:\n- Áo\n- Quần\n- Giày\n")
		assert.Contains(t, assistant.prompt, "- Quần jean (400000 VND) - Danh mục: Quần - Thương hiệu: Levi's\n")
		assert.Contains(t, assistant.prompt, "KHÁCH HÀNG HỎI: Tôi muốn mua đồ NIKE\n\nTRẢ LỜI:")
	})

	t.Run("message inside a name matches too", func(t *testing.T) {
		svc := newService(&stubAssistant{answer: "ok"}, newStore())
		resp := svc.Reply(ctx, MessageRequest{Message: "jean"})
		require.Len(t, resp.SuggestedProducts, 1)
		assert.Equal(t, "Quần jean", resp.SuggestedProducts[0].Name)
	})

	t.Run("generates a conversation id", func(t *testing.T) {
		svc := newService(&stubAssistant{answer: "ok"}, newStore())
		resp := svc.Reply(ctx, MessageRequest{Message: "hi"})
		_, err := uuid.Parse(resp.ConversationID)
		assert.NoError(t, err)
	})

	t.Run("context holds at most twenty products", func(t *testing.T) {
		store := newStore()
		store.products = nil
		for i := 0; i < 25; i++ {
			store.products = append(store.products, catalogapp.ProductResponse{ID: uuid.New(), Name: "Item", Price: decimal.NewFromInt(1)})
		}
		assistant := &stubAssistant{answer: "ok"}
		resp := newService(assistant, store).Reply(ctx, MessageRequest{Message: "item"})

		assert.Equal(t, MaxContextProducts, countOccurrences(assistant.prompt, "- Item (1 VND)"))
		assert.Len(t, resp.SuggestedProducts, MaxSuggestedProducts)
	})

	t.Run("assistant failure falls back", func(t *testing.T) {
		svc := newService(&stubAssistant{err: errors.New("upstream 503")}, newStore())
		resp := svc.Reply(ctx, MessageRequest{Message: "Nike", ConversationID: "c"})

		assert.Equal(t, FallbackMessage, resp.Message)
		assert.Equal(t, "c", resp.ConversationID)
		assert.NotNil(t, resp.SuggestedProducts)
		assert.Empty(t, resp.SuggestedProducts)
		assert.Empty(t, resp.SuggestedBrands)
	})

	t.Run("catalog failure falls back", func(t *testing.T) {
		store := newStore()
		store.err = errors.New("db down")
		resp := newService(&stubAssistant{answer: "ok"}, store).Reply(ctx, MessageRequest{Message: "x"})
		assert.Equal(t, FallbackMessage, resp.Message)
	})

	t.Run("no assistant falls back", func(t *testing.T) {
		resp := newService(nil, newStore()).Reply(ctx, MessageRequest{Message: "x"})
		assert.Equal(t, FallbackMessage, resp.Message)
	})
}

func TestChatService_Health(t *testing.T) {
	assert.Equal(t, HealthResponse{Status: "ok", Assistant: true}, newService(&stubAssistant{}, newStore()).Health())
	assert.Equal(t, HealthResponse{Status: "unavailable"}, newService(nil, newStore()).Health())
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
