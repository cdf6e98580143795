package service

import (
	"context"
	"sort"
	"strings"

	"arcapos/internal/dto"
	"arcapos/internal/infra"
	"arcapos/internal/model"

	"github.com/rs/zerolog/log"
)

const (
	defaultPtoVenta     = "0001"
	defaultCondicionIVA = "Responsable Inscripto"
)

// CompanyConfigError lists every field that failed validation, keyed by the
// JSON field name.
type CompanyConfigError struct {
	Fields map[string]string
}

func (e *CompanyConfigError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	sort.Strings(parts)
	return "company config: " + strings.Join(parts, "; ")
}

// CompanyConfigGateway is the issuer side of the invoicing backend.
type CompanyConfigGateway interface {
	GetCompanyConfig(ctx context.Context) (*dto.CompanyConfig, error)
	UpdateCompanyConfig(ctx context.Context, update dto.CompanyConfigUpdate) (*dto.CompanyConfigResponse, error)
}

var _ CompanyConfigGateway = (*infra.ARCAClient)(nil)

// CompanyConfigService reads and replaces the issuer configuration.
type CompanyConfigService interface {
	Get(ctx context.Context) (*dto.CompanyConfig, error)
	Update(ctx context.Context, req dto.ActualizarEmpresaRequest) (*dto.CompanyConfig, error)
}

type companyConfigService struct {
	gateway        CompanyConfigGateway
	defaultTesting bool
}

func NewCompanyConfigService(gateway CompanyConfigGateway, defaultTesting bool) CompanyConfigService {
	return &companyConfigService{gateway: gateway, defaultTesting: defaultTesting}
}

func (s *companyConfigService) Get(ctx context.Context) (*dto.CompanyConfig, error) {
	cfg, err := s.gateway.GetCompanyConfig(ctx)
	if err != nil {
		return nil, classifySubmitError(err)
	}
	return cfg, nil
}

// Update validates before calling the backend. AFIP credentials are only
// required outside testing mode, where the backend authenticates with WSAA.
func (s *companyConfigService) Update(ctx context.Context, req dto.ActualizarEmpresaRequest) (*dto.CompanyConfig, error) {
	testing := s.defaultTesting
	if req.Testing != nil {
		testing = *req.Testing
	}

	cfg, err := normalizeCompanyConfig(req, testing)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.UpdateCompanyConfig(ctx, dto.CompanyConfigUpdate{CompanyConfig: cfg, Testing: testing})
	if err != nil {
		return nil, classifySubmitError(err)
	}
	log.Info().Str("cuit", cfg.CUIT).Str("pto_venta", cfg.PtoVenta).Bool("testing", testing).Msg("company config: updated")

	// Older backends answer {success, message} without echoing the config.
	if resp.Config.CUIT == "" {
		return &cfg, nil
	}
	return &resp.Config, nil
}

func normalizeCompanyConfig(req dto.ActualizarEmpresaRequest, testing bool) (dto.CompanyConfig, error) {
	cfg := dto.CompanyConfig{
		CUIT:         model.FormatCUIT(req.CUIT),
		RazonSocial:  strings.TrimSpace(req.RazonSocial),
		PtoVenta:     strings.TrimSpace(req.PtoVenta),
		Usuario:      strings.TrimSpace(req.Usuario),
		Password:     req.Password,
		Domicilio:    strings.TrimSpace(req.Domicilio),
		CondicionIVA: strings.TrimSpace(req.CondicionIVA),
	}

	fields := map[string]string{}
	if len(model.NormalizeCUIT(req.CUIT)) != 11 {
		fields["cuit"] = "CUIT inválido"
	}
	if cfg.RazonSocial == "" {
		fields["razonSocial"] = "Razón Social es obligatoria"
	}
	if !testing {
		if cfg.Usuario == "" {
			fields["usuario"] = "Usuario AFIP es obligatorio"
		}
		if strings.TrimSpace(cfg.Password) == "" {
			fields["password"] = "Contraseña AFIP es obligatoria"
		}
	}
	if len(fields) > 0 {
		return dto.CompanyConfig{}, &CompanyConfigError{Fields: fields}
	}

	if cfg.PtoVenta == "" {
		cfg.PtoVenta = defaultPtoVenta
	} else if len(cfg.PtoVenta) < 4 {
		cfg.PtoVenta = strings.Repeat("0", 4-len(cfg.PtoVenta)) + cfg.PtoVenta
	}
	if cfg.CondicionIVA == "" {
		cfg.CondicionIVA = defaultCondicionIVA
	}
	return cfg, nil
}
