package infra

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"arcapos/internal/dto"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// ARCAClient is the REST client for the invoicing backend, which owns the
// ARCA/AFIP (WSAA + WSFEV1) exchange and PDF rendering. Submissions are never
// retried here: a duplicate POST can mean a duplicate CAE.
//
// Calls go through the circuit breaker. Only transport errors and 5xx count
// as failures; a 4xx is the backend working correctly.
type ARCAClient struct {
	http    *resty.Client
	cb      *CircuitBreaker
	baseURL string
}

func NewARCAClient(baseURL string, cb *CircuitBreaker) *ARCAClient {
	base := strings.TrimRight(baseURL, "/")
	if cb == nil {
		cb = NewCircuitBreaker(DefaultCBConfig())
	}
	return &ARCAClient{
		http: resty.New().
			SetBaseURL(base).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
		cb:      cb,
		baseURL: base,
	}
}

// BaseURL is the invoicing backend root, used to build live-mode PDF links.
func (c *ARCAClient) BaseURL() string { return c.baseURL }

// CircuitState is exposed for the health endpoint.
func (c *ARCAClient) CircuitState() CBState { return c.cb.State() }

// GenerateInvoice POSTs /generate-invoice. The deadline comes from ctx.
func (c *ARCAClient) GenerateInvoice(ctx context.Context, idempotencyKey string, payload dto.GenerateInvoiceRequest) (*dto.GenerateInvoiceResponse, error) {
	resp, err := c.execute(func() (*resty.Response, error) {
		return newRequest(ctx, c.http).
			SetHeader("Idempotency-Key", idempotencyKey).
			SetBody(payload).
			Post("/generate-invoice")
	})
	if err != nil {
		return nil, fmt.Errorf("arca: generate invoice: %w", err)
	}

	var out dto.GenerateInvoiceResponse
	if err := decodeBody(resp, &out); err != nil {
		return nil, fmt.Errorf("arca: generate invoice: %w", err)
	}
	return &out, nil
}

// ListInvoices GETs /invoices with the filter as query parameters.
func (c *ARCAClient) ListInvoices(ctx context.Context, f dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	query := map[string]string{
		"page":   strconv.Itoa(f.Page),
		"limit":  strconv.Itoa(f.Limit),
		"sortBy": f.SortBy,
		"order":  f.Order,
	}
	if f.Cliente != "" {
		query["cliente"] = f.Cliente
	}
	if f.Testing != "" {
		query["testing"] = f.Testing
	}
	if f.Status != "" {
		query["status"] = f.Status
	}

	resp, err := c.execute(func() (*resty.Response, error) {
		return newRequest(ctx, c.http).SetQueryParams(query).Get("/invoices")
	})
	if err != nil {
		return nil, fmt.Errorf("arca: list invoices: %w", err)
	}

	var out dto.InvoiceListResponse
	if err := decodeBody(resp, &out); err != nil {
		return nil, fmt.Errorf("arca: list invoices: %w", err)
	}
	return &out, nil
}

// GetCompanyConfig GETs /company-config.
func (c *ARCAClient) GetCompanyConfig(ctx context.Context) (*dto.CompanyConfig, error) {
	resp, err := c.execute(func() (*resty.Response, error) {
		return newRequest(ctx, c.http).Get("/company-config")
	})
	if err != nil {
		return nil, fmt.Errorf("arca: get company config: %w", err)
	}

	var out dto.CompanyConfigResponse
	if err := decodeBody(resp, &out); err != nil {
		return nil, fmt.Errorf("arca: get company config: %w", err)
	}
	return &out.Config, nil
}

// UpdateCompanyConfig PUTs /company-config. The backend echoes the stored
// configuration when it includes one.
func (c *ARCAClient) UpdateCompanyConfig(ctx context.Context, update dto.CompanyConfigUpdate) (*dto.CompanyConfigResponse, error) {
	resp, err := c.execute(func() (*resty.Response, error) {
		return newRequest(ctx, c.http).SetBody(update).Put("/company-config")
	})
	if err != nil {
		return nil, fmt.Errorf("arca: update company config: %w", err)
	}

	var out dto.CompanyConfigResponse
	if err := decodeBody(resp, &out); err != nil {
		return nil, fmt.Errorf("arca: update company config: %w", err)
	}
	return &out, nil
}

// execute runs one request through the breaker and turns non-2xx replies into
// *APIError.
func (c *ARCAClient) execute(do func() (*resty.Response, error)) (*resty.Response, error) {
	var resp *resty.Response
	err := c.cb.Execute(func() error {
		var err error
		resp, err = do()
		if err != nil {
			return err
		}
		if resp.StatusCode() >= 500 {
			return apiErrorFromResponse(resp)
		}
		return nil
	})
	if errors.Is(err, ErrCircuitOpen) {
		log.Warn().Str("circuit", c.cb.State().String()).Msg("arca: circuit open, request not sent")
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErrorFromResponse(resp)
	}
	return resp, nil
}

// DefaultARCACircuitBreaker trips after five consecutive failures and probes
// again after 30s.
func DefaultARCACircuitBreaker() *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "arca",
		FailureThreshold: 5,
		SuccessThreshold: 1,
		OpenTimeout:      30 * time.Second,
	})
}
