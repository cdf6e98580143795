package handler

import (
	"net/http"

	"arcapos/internal/apierror"
	"arcapos/internal/dto"
	"arcapos/internal/middleware"
	"arcapos/internal/model"
	"arcapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CartHandler struct {
	sessions *service.CartSessions
	catalog  service.CatalogService
}

func NewCartHandler(sessions *service.CartSessions, catalog service.CatalogService) *CartHandler {
	return &CartHandler{sessions: sessions, catalog: catalog}
}

func (h *CartHandler) store(c *gin.Context) (*service.CartStore, bool) {
	store, err := h.sessions.Get(c.Request.Context(), middleware.GetTerminal(c))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return store, true
}

// ObtenerCarrito godoc
// @Summary      Ver el carrito de la terminal
// @Description  Retorna las lineas del carrito con totales con y sin IVA.
// @Tags         carrito
// @Produce      json
// @Param        X-Terminal-ID header string false "Terminal (default: default)"
// @Success      200  {object} dto.CartResponse
// @Router       /v1/cart [get]
func (h *CartHandler) ObtenerCarrito(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cartResponse(middleware.GetTerminal(c), store))
}

// AgregarItem godoc
// @Summary      Agregar producto al carrito
// @Description  Identifica el producto por productId o barcode. Si el producto ya esta en el carrito suma la cantidad y reemplaza los precios.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Param        X-Terminal-ID header string false "Terminal"
// @Param        body body dto.AgregarItemRequest true "Producto, cantidad y precios"
// @Success      200  {object} dto.CartResponse
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.KindError
// @Router       /v1/cart/items [post]
func (h *CartHandler) AgregarItem(c *gin.Context) {
	var req dto.AgregarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}

	var (
		product *model.Product
		err     error
	)
	if req.ProductID != "" {
		product, err = h.catalog.FindProduct(c.Request.Context(), req.ProductID)
	} else {
		product, err = h.catalog.FindProductByBarcode(c.Request.Context(), req.Barcode)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	if err := store.AddItem(c.Request.Context(), *product, req.Quantity, req.PriceWithIVA, req.PriceWithoutIVA); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(middleware.GetTerminal(c), store))
}

// ObtenerItem godoc
// @Summary      Ver una linea del carrito
// @Tags         carrito
// @Produce      json
// @Param        X-Terminal-ID header string false "Terminal"
// @Param        productId path string true "ID del producto"
// @Success      200  {object} dto.CartLineResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/cart/items/{productId} [get]
func (h *CartHandler) ObtenerItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	line, found := store.Item(c.Param("productId"))
	if !found {
		c.JSON(http.StatusNotFound, apierror.New("El producto no esta en el carrito"))
		return
	}
	c.JSON(http.StatusOK, cartLineResponse(line))
}

// ActualizarCantidad godoc
// @Summary      Cambiar la cantidad de una linea
// @Description  Una cantidad menor o igual a cero elimina la linea.
// @Tags         carrito
// @Accept       json
// @Produce      json
// @Param        X-Terminal-ID header string false "Terminal"
// @Param        productId path string true "ID del producto"
// @Param        body body dto.ActualizarCantidadRequest true "Nueva cantidad"
// @Success      200  {object} dto.CartResponse
// @Router       /v1/cart/items/{productId} [put]
func (h *CartHandler) ActualizarCantidad(c *gin.Context) {
	var req dto.ActualizarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	store, ok := h.store(c)
	if !ok {
		return
	}
	if err := store.UpdateQuantity(c.Request.Context(), c.Param("productId"), req.Quantity); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(middleware.GetTerminal(c), store))
}

// QuitarItem godoc
// @Summary      Quitar una linea del carrito
// @Tags         carrito
// @Produce      json
// @Param        X-Terminal-ID header string false "Terminal"
// @Param        productId path string true "ID del producto"
// @Success      200  {object} dto.CartResponse
// @Router       /v1/cart/items/{productId} [delete]
func (h *CartHandler) QuitarItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	if err := store.RemoveItem(c.Request.Context(), c.Param("productId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartResponse(middleware.GetTerminal(c), store))
}

// VaciarCarrito godoc
// @Summary      Vaciar el carrito
// @Tags         carrito
// @Param        X-Terminal-ID header string false "Terminal"
// @Success      204
// @Router       /v1/cart [delete]
func (h *CartHandler) VaciarCarrito(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	store.Clear(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func cartLineResponse(l model.CartLine) dto.CartLineResponse {
	return dto.CartLineResponse{
		ProductID:           l.ProductID,
		Name:                l.Name,
		Barcode:             l.Barcode,
		Quantity:            l.Quantity,
		UnitPriceWithIVA:    l.UnitPriceWithIVA,
		UnitPriceWithoutIVA: l.UnitPriceWithoutIVA,
		SubtotalWithIVA:     service.Round2(l.Subtotal(model.WithIVA)),
		AddedAt:             l.AddedAt,
	}
}

func totalsResponse(t service.CartTotals) dto.CartTotalsResponse {
	return dto.CartTotalsResponse{
		TotalItems:   t.TotalItems,
		TotalPrice:   t.TotalPrice,
		AveragePrice: t.AveragePrice,
	}
}

func cartResponse(terminal string, store *service.CartStore) dto.CartResponse {
	lines := store.Lines()
	out := make([]dto.CartLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, cartLineResponse(l))
	}
	d := store.DetailedTotals()
	return dto.CartResponse{
		Terminal:        terminal,
		Lines:           out,
		UniqueProducts:  len(lines),
		TotalWithIVA:    totalsResponse(store.Totals(model.WithIVA)),
		TotalWithoutIVA: totalsResponse(store.Totals(model.WithoutIVA)),
		Detailed: dto.DetailedTotalsResponse{
			WithIVA:    d.WithIVA,
			WithoutIVA: d.WithoutIVA,
			TotalItems: d.TotalItems,
			AvgPrice:   d.AvgPrice,
			IVAAmount:  d.IVAAmount,
		},
	}
}
