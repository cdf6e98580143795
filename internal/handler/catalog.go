package handler

import (
	"net/http"
	"strconv"

	"arcapos/internal/dto"
	"arcapos/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogStaleHeader is set to "true" when a list was served from the
// last-known copy because the backend could not be reached.
const CatalogStaleHeader = "X-Catalog-Stale"

type CatalogHandler struct{ svc service.CatalogService }

func NewCatalogHandler(svc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// ListarProductos godoc
// @Summary      Listar productos
// @Description  Proxy del backend de productos. Si el backend no responde se sirve la ultima lista conocida con X-Catalog-Stale: true.
// @Tags         catalogo
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Product
// @Failure      503  {object} apierror.APIError
// @Router       /v1/products [get]
func (h *CatalogHandler) ListarProductos(c *gin.Context) {
	products, stale, err := h.svc.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(CatalogStaleHeader, strconv.FormatBool(stale))
	c.JSON(http.StatusOK, products)
}

// BuscarPorBarcode godoc
// @Summary      Buscar producto por codigo de barras
// @Tags         catalogo
// @Produce      json
// @Security     BearerAuth
// @Param        barcode path string true "EAN-8, UPC-A, EAN-13 o GTIN-14"
// @Success      200  {object} model.Product
// @Failure      404  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/products/barcode/{barcode} [get]
func (h *CatalogHandler) BuscarPorBarcode(c *gin.Context) {
	p, err := h.svc.FindProductByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ListarClientes godoc
// @Summary      Listar clientes
// @Tags         catalogo
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  model.Client
// @Failure      503  {object} apierror.APIError
// @Router       /v1/clients [get]
func (h *CatalogHandler) ListarClientes(c *gin.Context) {
	clients, stale, err := h.svc.ListClients(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header(CatalogStaleHeader, strconv.FormatBool(stale))
	c.JSON(http.StatusOK, clients)
}

// CrearCliente godoc
// @Summary      Crear cliente
// @Description  Crea el cliente en el backend de clientes. Nunca se guarda localmente si el backend falla.
// @Tags         catalogo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearClienteRequest true "Datos del cliente"
// @Success      201  {object} model.Client
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/clients [post]
func (h *CatalogHandler) CrearCliente(c *gin.Context) {
	var req dto.CrearClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	created, err := h.svc.CreateClient(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}
