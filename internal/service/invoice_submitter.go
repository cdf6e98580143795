package service

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"arcapos/internal/dto"
	"arcapos/internal/infra"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// InvoiceGateway is the invoicing backend as seen by the submitter.
type InvoiceGateway interface {
	GenerateInvoice(ctx context.Context, idempotencyKey string, payload dto.GenerateInvoiceRequest) (*dto.GenerateInvoiceResponse, error)
}

var _ InvoiceGateway = (*infra.ARCAClient)(nil)

// SubmitterConfig holds the submitter's tunables.
type SubmitterConfig struct {
	Timeout        time.Duration // per submission; 0 means 30s
	TestPDFBaseURL string        // root for test-mode PDF links
	LiveBaseURL    string        // root for live-mode PDF links the backend left blank
}

// InvoiceSubmitter sends InvoiceRequests to the invoicing backend. At most one
// submission per terminal is in flight; a second one fails fast with
// SubmitInFlight and never reaches the network. Nothing is retried.
type InvoiceSubmitter struct {
	gateway InvoiceGateway
	cfg     SubmitterConfig

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewInvoiceSubmitter(gateway InvoiceGateway, cfg SubmitterConfig) *InvoiceSubmitter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	cfg.TestPDFBaseURL = strings.TrimRight(cfg.TestPDFBaseURL, "/")
	cfg.LiveBaseURL = strings.TrimRight(cfg.LiveBaseURL, "/")
	return &InvoiceSubmitter{gateway: gateway, cfg: cfg, inFlight: make(map[string]struct{})}
}

// InFlight reports whether terminal has a submission outstanding.
func (s *InvoiceSubmitter) InFlight(terminal string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[terminal]
	return busy
}

func (s *InvoiceSubmitter) acquire(terminal string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[terminal]; busy {
		return false
	}
	s.inFlight[terminal] = struct{}{}
	return true
}

func (s *InvoiceSubmitter) release(terminal string) {
	s.mu.Lock()
	delete(s.inFlight, terminal)
	s.mu.Unlock()
}

// Submit sends req once. It does not touch the cart.
func (s *InvoiceSubmitter) Submit(ctx context.Context, req *InvoiceRequest) (*dto.InvoiceResult, error) {
	if req == nil || len(req.Lines) == 0 {
		return nil, &InvoiceError{Kind: InvoiceEmptyCart, Message: "no hay productos en el carrito"}
	}
	if !s.acquire(req.Terminal) {
		log.Warn().Str("terminal", req.Terminal).Msg("invoice: submission rejected, another one is in flight")
		return nil, &InvoiceError{Kind: InvoiceSubmitInFlight, Message: "ya hay una factura en proceso para esta terminal"}
	}
	defer s.release(req.Terminal)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	logger := log.With().
		Str("terminal", req.Terminal).
		Str("invoice_type", string(req.InvoiceType.Letter)).
		Str("total", req.Total.StringFixed(2)).
		Bool("testing", req.Testing).
		Str("idempotency_key", req.IdempotencyKey).
		Logger()

	start := time.Now()
	resp, err := s.gateway.GenerateInvoice(ctx, req.IdempotencyKey, req.Payload())
	if err != nil {
		ierr := classifySubmitError(err)
		logger.Error().Err(err).Str("kind", string(ierr.Kind)).Dur("elapsed", time.Since(start)).Msg("invoice: submission failed")
		return nil, ierr
	}
	if resp.Success != nil && !*resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "el servicio de facturación rechazó la solicitud"
		}
		logger.Error().Str("kind", string(InvoiceUnknown)).Str("backend_error", msg).Msg("invoice: submission failed")
		return nil, &InvoiceError{Kind: InvoiceUnknown, Message: msg}
	}

	result := s.toResult(req, resp)
	logger.Info().Str("invoice_number", result.InvoiceNumber).Str("cae", result.CAE).Dur("elapsed", time.Since(start)).Msg("invoice: issued")
	return result, nil
}

func (s *InvoiceSubmitter) toResult(req *InvoiceRequest, resp *dto.GenerateInvoiceResponse) *dto.InvoiceResult {
	res := &dto.InvoiceResult{
		InvoiceNumber: resp.InvoiceNumber,
		CAE:           resp.CAE,
		InvoiceType:   resp.InvoiceType,
		ClientName:    req.Client.Name,
		Total:         req.Total,
		IssuedAt:      resp.IssuedAt,
		CAEExpiry:     resp.CAEExpiry,
		Testing:       req.Testing,
		PDFFileName:   resp.PDFFileName,
	}
	if res.InvoiceType == "" {
		res.InvoiceType = string(req.InvoiceType.Letter)
	}
	if resp.Total > 0 {
		res.Total = Round2(decimal.NewFromFloat(resp.Total))
	}
	if res.IssuedAt == "" {
		res.IssuedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if req.Testing {
		if resp.PDFFileName != "" {
			file := url.PathEscape(resp.PDFFileName)
			res.ViewURL = s.cfg.TestPDFBaseURL + "/invoices/" + file
			res.DownloadURL = s.cfg.TestPDFBaseURL + "/invoices/download/" + file
		}
		return res
	}

	res.ViewURL, res.DownloadURL = resp.ViewURL, resp.DownloadURL
	if resp.InvoiceNumber != "" && s.cfg.LiveBaseURL != "" {
		fallback := s.cfg.LiveBaseURL + "/invoices/" + url.PathEscape(resp.InvoiceNumber) + "/pdf"
		if res.ViewURL == "" {
			res.ViewURL = fallback
		}
		if res.DownloadURL == "" {
			res.DownloadURL = fallback
		}
	}
	return res
}

// classifySubmitError maps a gateway error onto an InvoiceError kind.
func classifySubmitError(err error) *InvoiceError {
	var apiErr *infra.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Status
		}
		ie := &InvoiceError{Message: msg, StatusCode: apiErr.StatusCode, Err: err}
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			ie.Kind = InvoiceValidationRejected
		case http.StatusUnauthorized, http.StatusForbidden:
			ie.Kind = InvoiceUnauthorized
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			ie.Kind = InvoiceServiceUnavailable
		default:
			ie.Kind = InvoiceUnknown
		}
		return ie
	}

	switch {
	case errors.Is(err, infra.ErrMalformedResponse):
		return &InvoiceError{Kind: InvoiceUnknown, Message: "respuesta inválida del servicio de facturación", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &InvoiceError{Kind: InvoiceTimeout, Message: "el servicio de facturación no respondió a tiempo", Err: err}
	case errors.Is(err, context.Canceled):
		return &InvoiceError{Kind: InvoiceUnknown, Message: "envío cancelado", Err: err}
	case errors.Is(err, infra.ErrCircuitOpen):
		return &InvoiceError{Kind: InvoiceServiceUnavailable, Message: "servicio de facturación no disponible", Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &InvoiceError{Kind: InvoiceTimeout, Message: "el servicio de facturación no respondió a tiempo", Err: err}
	}
	return &InvoiceError{Kind: InvoiceServiceUnavailable, Message: "servicio de facturación no disponible", Err: err}
}
