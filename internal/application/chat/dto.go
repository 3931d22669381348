package chat

import (
	"time"

	"github.com/google/uuid"
)

// MessageRequest is a shopper question for the assistant
type MessageRequest struct {
	Message        string `json:"message" binding:"required,max=2000"`
	ConversationID string `json:"conversation_id" binding:"max=100"`
}

// ProductSuggestion is a product related to the question
type ProductSuggestion struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Price        string    `json:"price"`
	Image        string    `json:"image"`
	Description  string    `json:"description"`
	CategoryName string    `json:"category_name,omitempty"`
	BrandName    string    `json:"brand_name,omitempty"`
}

// LabelSuggestion is a category or brand related to the question
type LabelSuggestion struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// MessageResponse is the assistant reply
type MessageResponse struct {
	Message             string              `json:"message"`
	ConversationID      string              `json:"conversation_id"`
	Timestamp           time.Time           `json:"timestamp"`
	SuggestedProducts   []ProductSuggestion `json:"suggested_products"`
	SuggestedCategories []LabelSuggestion   `json:"suggested_categories"`
	SuggestedBrands     []LabelSuggestion   `json:"suggested_brands"`
}

// HealthResponse reports whether the assistant is configured
type HealthResponse struct {
	Status    string `json:"status"`
	Assistant bool   `json:"assistant"`
}
