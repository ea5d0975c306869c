package handler

import (
	"github.com/TOMBRITO1979/restaurante-sub001/internal/application/pos"
	"github.com/gin-gonic/gin"
)

// ProductHandler exposes the catalog
type ProductHandler struct {
	BaseHandler
	catalog *pos.CatalogService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog *pos.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// RegisterRoutes mounts the catalog routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.GET("", h.List)
	products.POST("", h.Create)
	products.GET("/:id", h.Get)
	products.PATCH("/:id/price", h.UpdatePrice)
}

// List godoc
// @Summary      List catalog products
// @Tags         products
// @Produce      json
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), namespace(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Create godoc
// @Summary      Create a catalog product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body pos.CreateProductInput true "Product"
// @Router       /products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var in pos.CreateProductInput
	if !h.BindJSON(c, &in) {
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), namespace(c), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), namespace(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// UpdatePrice changes a product's catalog price. Orders already placed keep
// their snapshot.
func (h *ProductHandler) UpdatePrice(c *gin.Context) {
	id, ok := h.PathID(c)
	if !ok {
		return
	}
	var in pos.UpdatePriceInput
	if !h.BindJSON(c, &in) {
		return
	}
	product, err := h.catalog.UpdateProductPrice(c.Request.Context(), namespace(c), id, in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
