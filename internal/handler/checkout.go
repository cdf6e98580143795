package handler

import (
	"net/http"
	"strings"

	"arcapos/internal/dto"
	"arcapos/internal/middleware"
	"arcapos/internal/model"
	"arcapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type CheckoutHandler struct {
	svc      service.CheckoutService
	catalog  service.CatalogService
	resolver service.InvoiceTypeResolver
}

func NewCheckoutHandler(svc service.CheckoutService, catalog service.CatalogService, resolver service.InvoiceTypeResolver) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, catalog: catalog, resolver: resolver}
}

// TipoFactura godoc
// @Summary      Clasificar tipo de factura
// @Description  Devuelve la letra (A, B o C) que corresponde al cliente. Sin cliente o sin CUIT es C.
// @Tags         facturacion
// @Accept       json
// @Produce      json
// @Param        body body dto.ClassifyRequest false "Cliente por id o inline"
// @Success      200  {object} dto.ClassifyResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/invoice-type [post]
func (h *CheckoutHandler) TipoFactura(c *gin.Context) {
	var req dto.ClassifyRequest
	if c.Request.ContentLength != 0 {
		if !bindAndValidate(c, &req) {
			return
		}
	}

	var client *model.Client
	switch {
	case strings.TrimSpace(req.ClientID) != "":
		found, err := h.catalog.FindClient(c.Request.Context(), strings.TrimSpace(req.ClientID))
		if err != nil {
			writeError(c, err)
			return
		}
		client = found
	case req.Client != nil:
		client = &model.Client{Name: req.Client.Name, CUIT: req.Client.CUIT, TypeOfClient: req.Client.TypeOfClient}
	}

	t := h.resolver.Classify(client)
	c.JSON(http.StatusOK, dto.ClassifyResponse{Letter: string(t.Letter), Description: t.Description})
}

// Preview godoc
// @Summary      Previsualizar la factura
// @Description  Arma la solicitud de facturacion con el carrito actual sin enviarla.
// @Tags         facturacion
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Terminal-ID header string false "Terminal"
// @Param        body body dto.CheckoutRequest true "Cliente y forma de pago"
// @Success      200  {object} dto.CheckoutPreviewResponse
// @Failure      422  {object} apierror.KindError
// @Router       /v1/checkout/preview [post]
func (h *CheckoutHandler) Preview(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ireq, err := h.svc.Preview(c.Request.Context(), middleware.GetTerminal(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CheckoutPreviewResponse{
		InvoiceLetter:      string(ireq.InvoiceType.Letter),
		InvoiceDescription: ireq.InvoiceType.Description,
		Total:              ireq.Total,
		TotalWithoutIVA:    ireq.TotalWithoutIVA,
		IVAAmount:          ireq.IVAAmount(),
		Lines:              len(ireq.Lines),
		PaymentMethod:      ireq.PaymentMethod,
		Testing:            ireq.Testing,
	})
}

// Checkout godoc
// @Summary      Facturar el carrito
// @Description  Envia la factura al backend ARCA. El carrito se vacia solo si se emitio la factura; ante un error queda intacto y puede reintentarse con /v1/checkout/retry.
// @Tags         facturacion
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        X-Terminal-ID header string false "Terminal"
// @Param        body body dto.CheckoutRequest true "Cliente y forma de pago"
// @Success      201  {object} dto.InvoiceResult
// @Failure      409  {object} apierror.KindError
// @Failure      422  {object} apierror.KindError
// @Failure      503  {object} apierror.KindError
// @Failure      504  {object} apierror.KindError
// @Router       /v1/checkout [post]
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Checkout(c.Request.Context(), middleware.GetTerminal(c), req)
	if err != nil {
		log.Warn().
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("terminal", middleware.GetTerminal(c)).
			Str("cashier", cashier(c)).
			Str("kind", string(service.InvoiceKind(err))).
			Err(err).
			Msg("checkout: failed")
		writeError(c, err)
		return
	}
	log.Info().
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("terminal", middleware.GetTerminal(c)).
		Str("cashier", cashier(c)).
		Str("invoice_number", res.InvoiceNumber).
		Msg("checkout: invoice issued")
	c.JSON(http.StatusCreated, res)
}

// cashier is the token subject, or "anonymous" when no token was sent.
func cashier(c *gin.Context) string {
	if claims := middleware.GetClaims(c); claims != nil && claims.Subject != "" {
		return claims.Subject
	}
	return "anonymous"
}

// Reintentar godoc
// @Summary      Reintentar la ultima facturacion fallida
// @Description  Reenvia exactamente la solicitud que fallo, con la misma clave de idempotencia. Se rechaza si el carrito cambio.
// @Tags         facturacion
// @Produce      json
// @Security     BearerAuth
// @Param        X-Terminal-ID header string false "Terminal"
// @Success      201  {object} dto.InvoiceResult
// @Failure      409  {object} apierror.APIError
// @Router       /v1/checkout/retry [post]
func (h *CheckoutHandler) Reintentar(c *gin.Context) {
	res, err := h.svc.RetryLast(c.Request.Context(), middleware.GetTerminal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	log.Info().
		Str("terminal", middleware.GetTerminal(c)).
		Str("cashier", cashier(c)).
		Str("invoice_number", res.InvoiceNumber).
		Msg("checkout: retry issued invoice")
	c.JSON(http.StatusCreated, res)
}
