package handler

import (
	"net/http"

	"arcapos/internal/apierror"
	"arcapos/internal/dto"
	"arcapos/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct{ svc service.InvoiceService }

func NewInvoicesHandler(svc service.InvoiceService) *InvoicesHandler {
	return &InvoicesHandler{svc: svc}
}

// Listar godoc
// @Summary      Listar facturas emitidas
// @Description  Proxy paginado del listado del backend de facturacion.
// @Tags         facturacion
// @Produce      json
// @Security     BearerAuth
// @Param        page    query int    false "Pagina"      default(1)
// @Param        limit   query int    false "Por pagina"  default(20)
// @Param        sortBy  query string false "issuedAt | total | invoiceNumber | clientName"
// @Param        order   query string false "asc | desc"
// @Param        cliente query string false "Filtro por cliente"
// @Param        testing query string false "true | false"
// @Param        status  query string false "Estado"
// @Success      200  {object} dto.InvoiceListResponse
// @Failure      503  {object} apierror.KindError
// @Router       /v1/invoices [get]
func (h *InvoicesHandler) Listar(c *gin.Context) {
	var filter dto.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	if !validateStruct(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
