package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogapp "github.com/ecomt/storefront/internal/application/catalog"
	"github.com/ecomt/storefront/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FallbackMessage is returned when no reply could be produced
const FallbackMessage = "Xin lỗi, đã có lỗi xảy ra. Vui lòng thử lại sau."

// Suggestion and context limits
const (
	MaxContextProducts   = 20
	MaxSuggestedProducts = 5
	MaxSuggestedLabels   = 3
)

// ErrNoAssistant means no assistant is configured
var ErrNoAssistant = errors.New("chat assistant is not configured")

// Assistant generates a completion for a prompt
type Assistant interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProductLister lists the active products shown to the assistant
type ProductLister interface {
	ListActive(ctx context.Context) ([]catalogapp.ProductResponse, error)
}

// CategoryLister lists all categories
type CategoryLister interface {
	List(ctx context.Context) ([]catalogapp.CategoryResponse, error)
}

// BrandLister lists all brands
type BrandLister interface {
	List(ctx context.Context) ([]catalogapp.BrandResponse, error)
}

// ChatService answers shopper questions with store context
type ChatService struct {
	assistant  Assistant
	products   ProductLister
	categories CategoryLister
	brands     BrandLister
	metrics    *telemetry.BusinessMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewChatService creates a new ChatService. assistant may be nil.
func NewChatService(
	assistant Assistant,
	products ProductLister,
	categories CategoryLister,
	brands BrandLister,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		assistant:  assistant,
		products:   products,
		categories: categories,
		brands:     brands,
		logger:     logger,
		now:        time.Now,
	}
}

// SetBusinessMetrics sets the business metrics recorder
func (s *ChatService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// Reply answers the message. Failures never surface as errors: the shopper
// gets the fallback message and no suggestions.
func (s *ChatService) Reply(ctx context.Context, req MessageRequest) *MessageResponse {
	start := time.Now()
	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	resp, err := s.reply(ctx, req.Message)
	outcome := telemetry.ChatOutcomeAnswered
	if err != nil {
		s.logger.Error("Failed to process chat message",
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
		outcome = telemetry.ChatOutcomeFallback
		resp = &MessageResponse{
			Message:             FallbackMessage,
			SuggestedProducts:   []ProductSuggestion{},
			SuggestedCategories: []LabelSuggestion{},
			SuggestedBrands:     []LabelSuggestion{},
		}
	}
	if s.metrics != nil {
		s.metrics.RecordChatReply(ctx, outcome, time.Since(start))
	}

	resp.ConversationID = conversationID
	resp.Timestamp = s.now()
	return resp
}

func (s *ChatService) reply(ctx context.Context, message string) (*MessageResponse, error) {
	if s.assistant == nil {
		return nil, ErrNoAssistant
	}

	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	brands, err := s.brands.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}

	prompt := buildContext(products, categories, brands) + "KHÁCH HÀNG HỎI: " + message + "\n\nTRẢ LỜI:"
	answer, err := s.assistant.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &MessageResponse{
		Message:             answer,
		SuggestedProducts:   suggestProducts(message, products),
		SuggestedCategories: suggestCategories(message, categories),
		SuggestedBrands:     suggestBrands(message, brands),
	}, nil
}

// Health reports whether an assistant is wired
func (s *ChatService) Health() HealthResponse {
	if s.assistant == nil {
		return HealthResponse{Status: "unavailable", Assistant: false}
	}
	return HealthResponse{Status: "ok", Assistant: true}
}

func buildContext(products []catalogapp.ProductResponse, categories []catalogapp.CategoryResponse, brands []catalogapp.BrandResponse) string {
	var b strings.Builder
	b.WriteString("Bạn là trợ lý AI của một cửa hàng thương mại điện tử. ")
	b.WriteString("Dưới đây là thông tin về sản phẩm, danh mục và thương hiệu của cửa hàng:\n\n")

	b.WriteString("DANH MỤC SẢN PHẨM:\n")
	for _, c := range categories {
		b.WriteString("- " + c.Name + "\n")
	}
	b.WriteString("\nTHƯƠNG HIỆU:\n")
	for _, br := range brands {
		b.WriteString("- " + br.Name + "\n")
	}

	b.WriteString("\nSẢN PHẨM HIỆN CÓ:\n")
	for i, p := range products {
		if i >= MaxContextProducts {
			break
		}
		fmt.Fprintf(&b, "- %s (%s VND)", p.Name, p.Price.String())
		if p.CategoryName != "" {
			b.WriteString(" - Danh mục: " + p.CategoryName)
		}
		if p.BrandName != "" {
			b.WriteString(" - Thương hiệu: " + p.BrandName)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nHãy trả lời câu hỏi của khách hàng một cách thân thiện và hữu ích. ")
	b.WriteString("Nếu khách hàng hỏi về sản phẩm, hãy đề xuất những sản phẩm phù hợp từ danh sách trên. ")
	b.WriteString("Trả lời bằng tiếng Việt.\n\n")
	return b.String()
}

// related matches when either text contains the other, ignoring case
func related(message, name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(name, message) || strings.Contains(message, name)
}

func suggestProducts(message string, products []catalogapp.ProductResponse) []ProductSuggestion {
	msg := strings.ToLower(message)
	out := make([]ProductSuggestion, 0, MaxSuggestedProducts)
	for _, p := range products {
		if len(out) == MaxSuggestedProducts {
			break
		}
		desc := strings.ToLower(p.Description)
		match := related(msg, strings.ToLower(p.Name)) ||
			(desc != "" && strings.Contains(desc, msg)) ||
			(p.CategoryName != "" && strings.Contains(msg, strings.ToLower(p.CategoryName))) ||
			(p.BrandName != "" && strings.Contains(msg, strings.ToLower(p.BrandName)))
		if !match {
			continue
		}
		out = append(out, ProductSuggestion{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price.String() + " VND",
			Image:        p.Image,
			Description:  p.Description,
			CategoryName: p.CategoryName,
			BrandName:    p.BrandName,
		})
	}
	return out
}

func suggestCategories(message string, categories []catalogapp.CategoryResponse) []LabelSuggestion {
	msg := strings.ToLower(message)
	out := make([]LabelSuggestion, 0, MaxSuggestedLabels)
	for _, c := range categories {
		if len(out) == MaxSuggestedLabels {
			break
		}
		if related(msg, strings.ToLower(c.Name)) {
			out = append(out, LabelSuggestion{ID: c.ID, Name: c.Name})
		}
	}
	return out
}

func suggestBrands(message string, brands []catalogapp.BrandResponse) []LabelSuggestion {
	msg := strings.ToLower(message)
	out := make([]LabelSuggestion, 0, MaxSuggestedLabels)
	for _, br := range brands {
		if len(out) == MaxSuggestedLabels {
			break
		}
		if related(msg, strings.ToLower(br.Name)) {
			out = append(out, LabelSuggestion{ID: br.ID, Name: br.Name})
		}
	}
	return out
}
