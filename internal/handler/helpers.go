package handler

import (
	"errors"
	"net/http"
	"reflect"

	"arcapos/internal/apierror"
	"arcapos/internal/infra"
	"arcapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// ── Error mapping ─────────────────────────────────────────────────────────────

var invoiceStatus = map[service.InvoiceErrorKind]int{
	service.InvoiceEmptyCart:          http.StatusUnprocessableEntity,
	service.InvoiceInvalidClient:      http.StatusUnprocessableEntity,
	service.InvoiceValidationRejected: http.StatusUnprocessableEntity,
	service.InvoiceUnauthorized:       http.StatusUnauthorized,
	service.InvoiceServiceUnavailable: http.StatusServiceUnavailable,
	service.InvoiceTimeout:            http.StatusGatewayTimeout,
	service.InvoiceSubmitInFlight:     http.StatusConflict,
	service.InvoiceUnknown:            http.StatusBadGateway,
}

// writeError maps service errors to the {"detail": ...} envelopes. Errors it
// does not recognize are logged and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	var (
		ierr   *service.InvoiceError
		cerr   *service.CartError
		cfgErr *service.CompanyConfigError
		apiErr *infra.APIError
	)
	switch {
	case errors.As(err, &ierr):
		status, ok := invoiceStatus[ierr.Kind]
		if !ok {
			status = http.StatusBadGateway
		}
		msg := ierr.Message
		if msg == "" {
			msg = string(ierr.Kind)
		}
		c.JSON(status, apierror.NewKind(string(ierr.Kind), msg))
	case errors.As(err, &cerr):
		status := http.StatusUnprocessableEntity
		if cerr.Kind == service.CartInvalidProduct {
			status = http.StatusBadRequest
		}
		c.JSON(status, apierror.NewKind(string(cerr.Kind), cerr.Error()))
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(cfgErr.Fields))
	case errors.Is(err, service.ErrInvalidTerminal):
		c.JSON(http.StatusBadRequest, apierror.New("X-Terminal-ID invalido"))
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, apierror.New("Producto no encontrado"))
	case errors.Is(err, service.ErrClientNotFound):
		c.JSON(http.StatusNotFound, apierror.New("Cliente no encontrado"))
	case errors.Is(err, service.ErrInvalidBarcode):
		c.JSON(http.StatusUnprocessableEntity, apierror.New("Codigo de barras invalido"))
	case errors.Is(err, service.ErrCatalogUnavailable):
		c.JSON(http.StatusServiceUnavailable, apierror.New("Catalogo no disponible"))
	case errors.Is(err, service.ErrNoFailedCheckout), errors.Is(err, service.ErrCartChanged):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &apiErr):
		status := http.StatusBadGateway
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			status = apiErr.StatusCode
		}
		msg := apiErr.Message
		if msg == "" {
			msg = "Error del backend: " + apiErr.Status
		}
		c.JSON(status, apierror.New(msg))
	default:
		log.Error().
			Str("path", c.FullPath()).
			Err(err).
			Msg("handler: unmapped error")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
