package handler

import (
	chatapp "github.com/ecomt/storefront/internal/application/chat"
	"github.com/gin-gonic/gin"
)

// ChatHandler exposes the shopping assistant
type ChatHandler struct {
	BaseHandler
	chatService *chatapp.ChatService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(chatService *chatapp.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Message godoc
// @Summary      Ask the shopping assistant
// @Description  Always answers 200; assistant failures yield an apology and no suggestions
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body chatapp.MessageRequest true "Question"
// @Success      200 {object} dto.Response{data=chatapp.MessageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /chat/message [post]
func (h *ChatHandler) Message(c *gin.Context) {
	var req chatapp.MessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.Success(c, h.chatService.Reply(c.Request.Context(), req))
}

// Health godoc
// @Summary      Assistant status
// @Tags         chat
// @Produce      json
// @Success      200 {object} dto.Response{data=chatapp.HealthResponse}
// @Router       /chat/health [get]
func (h *ChatHandler) Health(c *gin.Context) {
	h.Success(c, h.chatService.Health())
}
