package handler

import (
	"github.com/TOMBRITO1979/restaurante-sub001/internal/application/pos"
	"github.com/gin-gonic/gin"
)

// TabHandler exposes the tab lifecycle
type TabHandler struct {
	BaseHandler
	tabs *pos.TabService
}

// NewTabHandler creates a new TabHandler
func NewTabHandler(tabs *pos.TabService) *TabHandler {
	return &TabHandler{tabs: tabs}
}

// RegisterRoutes mounts the tab, order and sale routes
func (h *TabHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tabs := rg.Group("/tabs")
	tabs.POST("", h.FindOrCreate)
	tabs.GET("", h.ListOpen)
	tabs.GET("/:id", h.Get)
	tabs.POST("/:id/orders", h.AddOrder)
	tabs.POST("/:id/close", h.Close)

	rg.POST("/orders/:id/deliver", h.MarkDelivered)
	rg.GET("/sales/:id", h.GetSale)
}

// FindOrCreate godoc
// @Summary      Find or open a tab
// @Description  Returns the open tab for the table or contact, opening one when none exists
// @Tags         tabs
// @Accept       json
// @Produce      json
// @Param        request body pos.FindOrCreateTabInput true "Tab lookup"
// @Router       /tabs [post]
func (h *TabHandler) FindOrCreate(c *gin.Context) {
	var in pos.FindOrCreateTabInput
	if !h.BindJSON(c, &in) {
		return
	}
	tab, err := h.tabs.FindOrCreate(c.Request.Context(), namespace(c), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tab)
}

// ListOpen godoc
// @Summary      List open tabs
// @Tags         tabs
// @Produce      json
// @Router       /tabs [get]
func (h *TabHandler) ListOpen(c *gin.Context) {
	tabs, err := h.tabs.ListOpenTabs(c.Request.Context(), namespace(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tabs)
}

// Get returns a tab with its orders
func (h *TabHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	tab, err := h.tabs.GetTab(c.Request.Context(), namespace(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tab)
}

// AddOrder godoc
// @Summary      Add an order to an open tab
// @Tags         tabs
// @Accept       json
// @Produce      json
// @Param        id path string true "Tab ID"
// @Param        request body pos.AddOrderInput true "Order items"
// @Router       /tabs/{id}/orders [post]
func (h *TabHandler) AddOrder(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var in pos.AddOrderInput
	if !h.BindJSON(c, &in) {
		return
	}
	order, err := h.tabs.AddOrder(c.Request.Context(), namespace(c), id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Close godoc
// @Summary      Close a tab into a sale
// @Tags         tabs
// @Accept       json
// @Produce      json
// @Param        id path string true "Tab ID"
// @Param        request body pos.CloseTabInput true "Payment and rates"
// @Router       /tabs/{id}/close [post]
func (h *TabHandler) Close(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var in pos.CloseTabInput
	if !h.BindJSON(c, &in) {
		return
	}
	sale, err := h.tabs.Close(c.Request.Context(), namespace(c), id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// MarkDelivered flags an order as delivered. Repeating it is harmless.
func (h *TabHandler) MarkDelivered(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	order, err := h.tabs.MarkDelivered(c.Request.Context(), namespace(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// GetSale returns a closed tab's sale
func (h *TabHandler) GetSale(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	sale, err := h.tabs.GetSale(c.Request.Context(), namespace(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
