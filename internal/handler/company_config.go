package handler

import (
	"net/http"

	"arcapos/internal/dto"
	"arcapos/internal/service"

	"github.com/gin-gonic/gin"
)

type CompanyConfigHandler struct{ svc service.CompanyConfigService }

func NewCompanyConfigHandler(svc service.CompanyConfigService) *CompanyConfigHandler {
	return &CompanyConfigHandler{svc: svc}
}

// ObtenerEmpresa godoc
// @Summary      Obtener los datos del emisor
// @Tags         facturacion
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.CompanyConfig
// @Failure      503  {object} apierror.KindError
// @Router       /v1/company-config [get]
func (h *CompanyConfigHandler) ObtenerEmpresa(c *gin.Context) {
	cfg, err := h.svc.Get(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// ActualizarEmpresa godoc
// @Summary      Actualizar los datos del emisor
// @Description  Usuario y contrasena AFIP son obligatorios fuera del modo testing.
// @Tags         facturacion
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ActualizarEmpresaRequest true "Datos del emisor"
// @Success      200  {object} dto.CompanyConfig
// @Failure      422  {object} apierror.ValidationError
// @Failure      503  {object} apierror.KindError
// @Router       /v1/company-config [put]
func (h *CompanyConfigHandler) ActualizarEmpresa(c *gin.Context) {
	var req dto.ActualizarEmpresaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cfg, err := h.svc.Update(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}
