package handler

import (
	"strings"

	orderapp "github.com/ecomt/storefront/internal/application/order"
	"github.com/gin-gonic/gin"
)

// OrderHandler handles checkout and order history, plus the admin order desk
type OrderHandler struct {
	BaseHandler
	orderService *orderapp.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *orderapp.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Create godoc
// @Summary      Check out my cart
// @Description  Place an order from the cart lines at their current effective prices and empty the cart
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body orderapp.CreateOrderRequest true "Shipping and payment"
// @Success      201 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /user/orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req orderapp.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orderService.CreateFromCart(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMine godoc
// @Summary      List my orders
// @Tags         orders
// @Produce      json
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse}
// @Security     BearerAuth
// @Router       /user/orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	resp, err := h.orderService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetMine godoc
// @Summary      Get one of my orders
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /user/orders/{id} [get]
func (h *OrderHandler) GetMine(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.GetForUser(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListAll godoc
// @Summary      List orders
// @Description  Newest first, optionally restricted to one status
// @Tags         admin
// @Produce      json
// @Param        status    query string false "PENDING, PROCESSING, COMPLETED or CANCELLED"
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) ListAll(c *gin.Context) {
	var filter orderapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.orderService.ListAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListByStatus godoc
// @Summary      List orders in one status
// @Tags         admin
// @Produce      json
// @Param        status path string true "Order status"
// @Success      200 {object} dto.Response{data=[]orderapp.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/status/{status} [get]
func (h *OrderHandler) ListByStatus(c *gin.Context) {
	resp, err := h.orderService.ListByStatus(c.Request.Context(), strings.ToUpper(c.Param("status")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Get godoc
// @Summary      Get any order
// @Tags         admin
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateStatus godoc
// @Summary      Move an order to another status
// @Description  Completing a cash-on-delivery order marks it paid
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Order ID"
// @Param        request body orderapp.UpdateOrderStatusRequest true "Status"
// @Success      200 {object} dto.Response{data=orderapp.OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req orderapp.UpdateOrderStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orderService.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
