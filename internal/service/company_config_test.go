package service_test

import (
	"context"
	"testing"

	"arcapos/internal/dto"
	"arcapos/internal/infra"
	"arcapos/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCompanyGateway struct {
	cfg     dto.CompanyConfig
	resp    *dto.CompanyConfigResponse
	err     error
	updates []dto.CompanyConfigUpdate
}

var _ service.CompanyConfigGateway = (*stubCompanyGateway)(nil)

func (g *stubCompanyGateway) GetCompanyConfig(context.Context) (*dto.CompanyConfig, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &g.cfg, nil
}

func (g *stubCompanyGateway) UpdateCompanyConfig(_ context.Context, u dto.CompanyConfigUpdate) (*dto.CompanyConfigResponse, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.updates = append(g.updates, u)
	if g.resp != nil {
		return g.resp, nil
	}
	return &dto.CompanyConfigResponse{Success: true, Config: u.CompanyConfig}, nil
}

func TestCompanyConfig_LiveModeRequiresCredentials(t *testing.T) {
	gw := &stubCompanyGateway{}
	svc := service.NewCompanyConfigService(gw, false)

	_, err := svc.Update(ctx, dto.ActualizarEmpresaRequest{CUIT: "30712345671", RazonSocial: "Norte SRL"})
	var cfgErr *service.CompanyConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Fields, 2)
	assert.Empty(t, gw.updates)

	cfg, err := svc.Update(ctx, dto.ActualizarEmpresaRequest{
		CUIT: "30-71234567-1", RazonSocial: "Norte SRL", Usuario: "20111111112", Password: "secreto",
	})
	require.NoError(t, err)
	assert.Equal(t, "30-71234567-1", cfg.CUIT)
	assert.Equal(t, "0001", cfg.PtoVenta)
	require.Len(t, gw.updates, 1)
	assert.False(t, gw.updates[0].Testing)
	assert.Equal(t, "secreto", gw.updates[0].Password)
}

func TestCompanyConfig_ExplicitTestingFlagWins(t *testing.T) {
	gw := &stubCompanyGateway{}
	svc := service.NewCompanyConfigService(gw, false)

	_, err := svc.Update(ctx, dto.ActualizarEmpresaRequest{CUIT: "30712345671", RazonSocial: "Norte SRL", Testing: boolPtr(true)})
	require.NoError(t, err)
	require.Len(t, gw.updates, 1)
	assert.True(t, gw.updates[0].Testing)
}

func TestCompanyConfig_CUITNeedsElevenDigits(t *testing.T) {
	svc := service.NewCompanyConfigService(&stubCompanyGateway{}, true)

	for _, cuit := range []string{"", "3071234567", "307123456711", "30-7123-4567"} {
		_, err := svc.Update(ctx, dto.ActualizarEmpresaRequest{CUIT: cuit, RazonSocial: "Norte SRL"})
		var cfgErr *service.CompanyConfigError
		require.ErrorAs(t, err, &cfgErr, cuit)
		assert.Equal(t, "CUIT inválido", cfgErr.Fields["cuit"])
	}
}

func TestCompanyConfig_BackendWithoutEcho(t *testing.T) {
	gw := &stubCompanyGateway{resp: &dto.CompanyConfigResponse{Success: true, Message: "ok"}}
	svc := service.NewCompanyConfigService(gw, true)

	cfg, err := svc.Update(ctx, dto.ActualizarEmpresaRequest{CUIT: "30712345671", RazonSocial: "Norte SRL", PtoVenta: "12"})
	require.NoError(t, err)
	assert.Equal(t, "0012", cfg.PtoVenta)
	assert.Equal(t, "Responsable Inscripto", cfg.CondicionIVA)
}

func TestCompanyConfig_BackendErrorsAreClassified(t *testing.T) {
	gw := &stubCompanyGateway{err: infra.ErrCircuitOpen}
	svc := service.NewCompanyConfigService(gw, true)

	_, err := svc.Get(ctx)
	assert.Equal(t, service.InvoiceServiceUnavailable, service.InvoiceKind(err))

	gw.err = &infra.APIError{StatusCode: 401, Status: "401 Unauthorized"}
	_, err = svc.Update(ctx, dto.ActualizarEmpresaRequest{CUIT: "30712345671", RazonSocial: "Norte SRL"})
	assert.Equal(t, service.InvoiceUnauthorized, service.InvoiceKind(err))
}
