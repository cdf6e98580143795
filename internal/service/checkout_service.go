package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"arcapos/internal/dto"
	"arcapos/internal/model"

	"github.com/rs/zerolog/log"
)

var (
	ErrNoFailedCheckout = errors.New("no hay una facturación fallida para reintentar")
	ErrCartChanged      = errors.New("el carrito cambió desde el último intento; confirme la venta nuevamente")
)

// FailedCheckout is the last submission of a terminal that did not produce an
// invoice. Its request is kept verbatim so a manual retry reuses the same
// idempotency key.
type FailedCheckout struct {
	Request  *InvoiceRequest
	Err      *InvoiceError
	FailedAt time.Time
}

// CheckoutService is the orchestrating caller: it resolves the client, builds
// the request from the terminal's cart, submits it and removes the invoiced
// lines only after an invoice was issued.
type CheckoutService interface {
	Preview(ctx context.Context, terminal string, req dto.CheckoutRequest) (*InvoiceRequest, error)
	Checkout(ctx context.Context, terminal string, req dto.CheckoutRequest) (*dto.InvoiceResult, error)
	RetryLast(ctx context.Context, terminal string) (*dto.InvoiceResult, error)
	LastFailure(terminal string) (*FailedCheckout, bool)
}

type checkoutService struct {
	sessions       *CartSessions
	catalog        CatalogService
	builder        *InvoiceRequestBuilder
	submitter      *InvoiceSubmitter
	defaultTesting bool

	mu       sync.Mutex
	failures map[string]*FailedCheckout
}

func NewCheckoutService(
	sessions *CartSessions,
	catalog CatalogService,
	builder *InvoiceRequestBuilder,
	submitter *InvoiceSubmitter,
	defaultTesting bool,
) CheckoutService {
	return &checkoutService{
		sessions:       sessions,
		catalog:        catalog,
		builder:        builder,
		submitter:      submitter,
		defaultTesting: defaultTesting,
		failures:       make(map[string]*FailedCheckout),
	}
}

// ── Preview ───────────────────────────────────────────────────────────────────

func (s *checkoutService) Preview(ctx context.Context, terminal string, req dto.CheckoutRequest) (*InvoiceRequest, error) {
	store, err := s.sessions.Get(ctx, terminal)
	if err != nil {
		return nil, err
	}
	return s.build(ctx, terminal, store, req)
}

// build checks the cart before resolving the client so an empty cart never
// costs a backend call.
func (s *checkoutService) build(ctx context.Context, terminal string, store *CartStore, req dto.CheckoutRequest) (*InvoiceRequest, error) {
	lines := store.Lines()
	if len(lines) == 0 {
		return nil, &InvoiceError{Kind: InvoiceEmptyCart, Message: "no hay productos en el carrito"}
	}
	client, err := s.resolveClient(ctx, req)
	if err != nil {
		return nil, err
	}
	testing := s.defaultTesting
	if req.Testing != nil {
		testing = *req.Testing
	}
	return s.builder.Build(terminalOrDefault(terminal), client, lines, req.PaymentMethod, testing)
}

func (s *checkoutService) resolveClient(ctx context.Context, req dto.CheckoutRequest) (*model.Client, error) {
	if id := strings.TrimSpace(req.ClientID); id != "" {
		c, err := s.catalog.FindClient(ctx, id)
		switch {
		case errors.Is(err, ErrClientNotFound):
			return nil, &InvoiceError{Kind: InvoiceInvalidClient, Message: "cliente no encontrado: " + id}
		case err != nil:
			return nil, &InvoiceError{Kind: InvoiceServiceUnavailable, Message: "no se pudo obtener el cliente", Err: err}
		}
		return c, nil
	}
	if in := req.Client; in != nil {
		return &model.Client{
			Name:            in.Name,
			CUIT:            in.CUIT,
			TypeOfClient:    in.TypeOfClient,
			Email:           in.Email,
			FiscalDirection: in.FiscalDirection,
		}, nil
	}
	return nil, nil
}

// ── Checkout ──────────────────────────────────────────────────────────────────

func (s *checkoutService) Checkout(ctx context.Context, terminal string, req dto.CheckoutRequest) (*dto.InvoiceResult, error) {
	store, err := s.sessions.Get(ctx, terminal)
	if err != nil {
		return nil, err
	}
	ireq, err := s.build(ctx, terminal, store, req)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, store, ireq)
}

func (s *checkoutService) submit(ctx context.Context, store *CartStore, ireq *InvoiceRequest) (*dto.InvoiceResult, error) {
	result, err := s.submitter.Submit(ctx, ireq)
	if err != nil {
		var ierr *InvoiceError
		if errors.As(err, &ierr) && ierr.Kind != InvoiceSubmitInFlight {
			s.mu.Lock()
			s.failures[ireq.Terminal] = &FailedCheckout{Request: ireq, Err: ierr, FailedAt: time.Now()}
			s.mu.Unlock()
		}
		return nil, err
	}

	s.mu.Lock()
	delete(s.failures, ireq.Terminal)
	s.mu.Unlock()

	store.RemoveInvoiced(ctx, ireq.Lines)
	log.Info().Str("terminal", ireq.Terminal).Str("invoice_number", result.InvoiceNumber).Msg("checkout: completed, invoiced lines removed")
	return result, nil
}

// ── RetryLast ─────────────────────────────────────────────────────────────────

// RetryLast re-submits the terminal's last failed request. It refuses when the
// cart no longer matches that request, since the invoice would not describe
// what is being sold.
func (s *checkoutService) RetryLast(ctx context.Context, terminal string) (*dto.InvoiceResult, error) {
	terminal = terminalOrDefault(terminal)
	failed, ok := s.LastFailure(terminal)
	if !ok {
		return nil, ErrNoFailedCheckout
	}
	store, err := s.sessions.Get(ctx, terminal)
	if err != nil {
		return nil, err
	}
	if !sameLines(store.Lines(), failed.Request.Lines) {
		s.mu.Lock()
		delete(s.failures, terminal)
		s.mu.Unlock()
		return nil, ErrCartChanged
	}
	log.Info().Str("terminal", terminal).Str("idempotency_key", failed.Request.IdempotencyKey).
		Str("previous_kind", string(failed.Err.Kind)).Msg("checkout: manual retry")
	return s.submit(ctx, store, failed.Request)
}

func (s *checkoutService) LastFailure(terminal string) (*FailedCheckout, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.failures[terminalOrDefault(terminal)]
	return f, ok
}

func sameLines(a, b []model.CartLine) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ProductID != b[i].ProductID ||
			a[i].Quantity != b[i].Quantity ||
			!a[i].UnitPriceWithIVA.Equal(b[i].UnitPriceWithIVA) ||
			!a[i].UnitPriceWithoutIVA.Equal(b[i].UnitPriceWithoutIVA) {
			return false
		}
	}
	return true
}

func terminalOrDefault(terminal string) string {
	if terminal == "" {
		return DefaultTerminal
	}
	return terminal
}
