package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"arcapos/internal/dto"
	"arcapos/internal/infra"
	"arcapos/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── stubGateway ───────────────────────────────────────────────────────────────

type stubGateway struct {
	calls   int32
	release chan struct{} // when set, GenerateInvoice blocks until closed
	entered chan struct{}
	resp    *dto.GenerateInvoiceResponse
	err     error
	last    dto.GenerateInvoiceRequest
	keys    []string
	mu      sync.Mutex
}

var _ service.InvoiceGateway = (*stubGateway)(nil)

func (g *stubGateway) GenerateInvoice(ctx context.Context, key string, p dto.GenerateInvoiceRequest) (*dto.GenerateInvoiceResponse, error) {
	atomic.AddInt32(&g.calls, 1)
	g.mu.Lock()
	g.last = p
	g.keys = append(g.keys, key)
	g.mu.Unlock()
	if g.entered != nil {
		g.entered <- struct{}{}
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, fmt.Errorf("arca: generate invoice: %w", ctx.Err())
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	if g.resp != nil {
		return g.resp, nil
	}
	return &dto.GenerateInvoiceResponse{
		InvoiceNumber: "0001-00000042",
		CAE:           "75123456789012",
		InvoiceType:   p.InvoiceType,
		CAEExpiry:     "2026-11-01",
		IssuedAt:      "2026-10-19T12:00:00Z",
		Total:         p.Total,
		PDFFileName:   "factura_0001-00000042.pdf",
	}, nil
}

func (g *stubGateway) Calls() int { return int(atomic.LoadInt32(&g.calls)) }

func newSubmitter(g service.InvoiceGateway) *service.InvoiceSubmitter {
	return service.NewInvoiceSubmitter(g, service.SubmitterConfig{
		Timeout:        2 * time.Second,
		TestPDFBaseURL: "http://localhost:3000/",
		LiveBaseURL:    "http://localhost:3000/api/arca",
	})
}

func basicRequest(t *testing.T, testMode bool) *service.InvoiceRequest {
	t.Helper()
	req, err := service.BuildInvoiceRequest(riClient(), sku1Lines(), "Efectivo", testMode)
	require.NoError(t, err)
	return req
}

// ── Success ───────────────────────────────────────────────────────────────────

func TestSubmit_TestingModeBuildsLocalPDFLinks(t *testing.T) {
	g := &stubGateway{}
	res, err := newSubmitter(g).Submit(ctx, basicRequest(t, true))
	require.NoError(t, err)

	assert.Equal(t, "0001-00000042", res.InvoiceNumber)
	assert.Equal(t, "75123456789012", res.CAE)
	assert.Equal(t, "A", res.InvoiceType)
	assert.Equal(t, "100.00", res.Total.StringFixed(2))
	assert.True(t, res.Testing)
	assert.Equal(t, "http://localhost:3000/invoices/factura_0001-00000042.pdf", res.ViewURL)
	assert.Equal(t, "http://localhost:3000/invoices/download/factura_0001-00000042.pdf", res.DownloadURL)
	assert.True(t, g.last.Testing)
}

func TestSubmit_LiveModeUsesBackendLinks(t *testing.T) {
	g := &stubGateway{resp: &dto.GenerateInvoiceResponse{
		InvoiceNumber: "0002-00000007",
		CAE:           "75000000000001",
		PDFFileName:   "f.pdf",
		ViewURL:       "https://facturas.example.com/view/7",
		DownloadURL:   "https://facturas.example.com/dl/7",
	}}
	res, err := newSubmitter(g).Submit(ctx, basicRequest(t, false))
	require.NoError(t, err)
	assert.Equal(t, "https://facturas.example.com/view/7", res.ViewURL)
	assert.Equal(t, "https://facturas.example.com/dl/7", res.DownloadURL)
	assert.Equal(t, "A", res.InvoiceType)
	assert.NotEmpty(t, res.IssuedAt)
}

func TestSubmit_LiveModeDefaultsPDFLink(t *testing.T) {
	g := &stubGateway{resp: &dto.GenerateInvoiceResponse{InvoiceNumber: "0002-00000008", CAE: "1"}}
	res, err := newSubmitter(g).Submit(ctx, basicRequest(t, false))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000/api/arca/invoices/0002-00000008/pdf", res.ViewURL)
	assert.Equal(t, res.ViewURL, res.DownloadURL)
}

// ── Failures ──────────────────────────────────────────────────────────────────

func TestSubmit_ErrorKinds(t *testing.T) {
	apiErr := func(code int) error {
		return fmt.Errorf("arca: generate invoice: %w", &infra.APIError{StatusCode: code, Status: http.StatusText(code), Message: "detalle"})
	}
	cases := []struct {
		name string
		err  error
		kind service.InvoiceErrorKind
	}{
		{"400", apiErr(400), service.InvoiceValidationRejected},
		{"422", apiErr(422), service.InvoiceValidationRejected},
		{"401", apiErr(401), service.InvoiceUnauthorized},
		{"403", apiErr(403), service.InvoiceUnauthorized},
		{"502", apiErr(502), service.InvoiceServiceUnavailable},
		{"503", apiErr(503), service.InvoiceServiceUnavailable},
		{"504", apiErr(504), service.InvoiceServiceUnavailable},
		{"500", apiErr(500), service.InvoiceUnknown},
		{"409", apiErr(409), service.InvoiceUnknown},
		{"circuit open", fmt.Errorf("arca: %w", infra.ErrCircuitOpen), service.InvoiceServiceUnavailable},
		{"transport", errors.New("dial tcp: connection refused"), service.InvoiceServiceUnavailable},
		{"malformed", fmt.Errorf("arca: %w: eof", infra.ErrMalformedResponse), service.InvoiceUnknown},
		{"deadline", fmt.Errorf("arca: %w", context.DeadlineExceeded), service.InvoiceTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newSubmitter(&stubGateway{err: tc.err}).Submit(ctx, basicRequest(t, false))
			require.Error(t, err)
			assert.Equal(t, tc.kind, service.InvoiceKind(err))
		})
	}
}

func TestSubmit_BackendMessageSurfacedVerbatim(t *testing.T) {
	g := &stubGateway{err: &infra.APIError{StatusCode: 422, Status: "422 Unprocessable Entity", Message: "CUIT del receptor inválido"}}
	_, err := newSubmitter(g).Submit(ctx, basicRequest(t, false))

	var ierr *service.InvoiceError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, "CUIT del receptor inválido", ierr.Message)
	assert.Equal(t, 422, ierr.StatusCode)
}

func TestSubmit_SuccessFalseIsAFailure(t *testing.T) {
	no := false
	g := &stubGateway{resp: &dto.GenerateInvoiceResponse{Success: &no, Error: "Punto de venta no habilitado"}}
	_, err := newSubmitter(g).Submit(ctx, basicRequest(t, false))

	var ierr *service.InvoiceError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, service.InvoiceUnknown, ierr.Kind)
	assert.Equal(t, "Punto de venta no habilitado", ierr.Message)
}

func TestSubmit_Timeout(t *testing.T) {
	g := &stubGateway{release: make(chan struct{})}
	defer close(g.release)
	s := service.NewInvoiceSubmitter(g, service.SubmitterConfig{Timeout: 20 * time.Millisecond})

	_, err := s.Submit(ctx, basicRequest(t, false))
	assert.Equal(t, service.InvoiceTimeout, service.InvoiceKind(err))
	assert.False(t, s.InFlight(service.DefaultTerminal))
}

func TestSubmit_NoAutomaticRetry(t *testing.T) {
	g := &stubGateway{err: &infra.APIError{StatusCode: 503, Status: "503"}}
	_, err := newSubmitter(g).Submit(ctx, basicRequest(t, false))
	require.Error(t, err)
	assert.Equal(t, 1, g.Calls())
}

// ── Double-submit guard ───────────────────────────────────────────────────────

func TestSubmit_DoubleSubmitGuard(t *testing.T) {
	g := &stubGateway{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := newSubmitter(g)
	req := basicRequest(t, false)

	firstDone := make(chan error, 1)
	go func() {
		_, err := s.Submit(ctx, req)
		firstDone <- err
	}()
	<-g.entered // first submission is on the wire
	assert.True(t, s.InFlight(req.Terminal))

	_, err := s.Submit(ctx, req)
	assert.ErrorIs(t, err, service.ErrSubmitInFlight)

	close(g.release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, g.Calls())
	assert.False(t, s.InFlight(req.Terminal))
}

func TestSubmit_GuardIsPerTerminal(t *testing.T) {
	g := &stubGateway{release: make(chan struct{}), entered: make(chan struct{}, 2)}
	s := newSubmitter(g)
	b := service.NewInvoiceRequestBuilder(service.InvoiceTypeResolver{})

	r1, err := b.Build("till-1", riClient(), sku1Lines(), "", false)
	require.NoError(t, err)
	r2, err := b.Build("till-2", riClient(), sku1Lines(), "", false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, r := range []*service.InvoiceRequest{r1, r2} {
		wg.Add(1)
		go func(r *service.InvoiceRequest) {
			defer wg.Done()
			_, err := s.Submit(ctx, r)
			assert.NoError(t, err)
		}(r)
	}
	<-g.entered
	<-g.entered
	close(g.release)
	wg.Wait()
	assert.Equal(t, 2, g.Calls())
}

func TestSubmit_EmptyRequestNeverReachesNetwork(t *testing.T) {
	g := &stubGateway{}
	_, err := newSubmitter(g).Submit(ctx, &service.InvoiceRequest{})
	assert.ErrorIs(t, err, service.ErrEmptyCart)
	assert.Equal(t, 0, g.Calls())
}
