package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"arcapos/internal/config"
	"arcapos/internal/dto"
	"arcapos/internal/infra"
	"arcapos/internal/repository"
	"arcapos/internal/router"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeBackends serves the product/client backend and the invoicing backend
// from one httptest server.
type fakeBackends struct {
	mu        sync.Mutex
	authSeen  []string
	invoices  []dto.GenerateInvoiceRequest
	idemKeys  []string
	invoiceUp bool
}

func (f *fakeBackends) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/products/get", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authSeen = append(f.authSeen, r.Header.Get("Authorization"))
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"products": []map[string]any{
			{"_id": "SKU1", "name": "Aceite 900ml", "price": 41.32, "barcode": "7790000000011"},
		}})
	})
	mux.HandleFunc("/api/clients/get", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"_id": "c-ri", "name": "Distribuidora Norte SRL", "cuit": "30712345671", "typeOfClient": "Responsable Inscripto"},
		})
	})
	mux.HandleFunc("/api/arca/generate-invoice", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var req dto.GenerateInvoiceRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.invoices = append(f.invoices, req)
		f.idemKeys = append(f.idemKeys, r.Header.Get("Idempotency-Key"))
		if !f.invoiceUp {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "AFIP WSFE no disponible"})
			return
		}
		writeJSON(w, http.StatusOK, dto.GenerateInvoiceResponse{
			InvoiceNumber: "0003-00000010",
			CAE:           "75222222222222",
			InvoiceType:   req.InvoiceType,
			Total:         req.Total,
			PDFFileName:   "factura_0003-00000010.pdf",
		})
	})
	mux.HandleFunc("/api/arca/company-config", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authSeen = append(f.authSeen, r.Header.Get("Authorization"))
		f.mu.Unlock()
		if r.Method == http.MethodPut {
			var u dto.CompanyConfigUpdate
			_ = json.NewDecoder(r.Body).Decode(&u)
			writeJSON(w, http.StatusOK, dto.CompanyConfigResponse{Success: true, Config: u.CompanyConfig})
			return
		}
		writeJSON(w, http.StatusOK, dto.CompanyConfigResponse{Config: dto.CompanyConfig{CUIT: "30-71234567-1", RazonSocial: "Norte SRL"}})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return mux
}

func newServer(t *testing.T, fake *fakeBackends) *gin.Engine {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	t.Setenv("BACKEND_URL", srv.URL+"/api")
	t.Setenv("INVOICING_URL", srv.URL+"/api/arca")
	t.Setenv("CART_STORE", "memory")
	t.Setenv("TESTING_MODE", "false")
	t.Setenv("APP_ENV", "test")
	cfg, err := config.Load()
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	return router.New(cfg, router.Deps{
		CartRepo:     repository.NewMemoryCartRepository(),
		CatalogCache: repository.NewMemoryCatalogCache(),
		Backend:      infra.NewBackendClient(cfg.BackendURL, 2*time.Second),
		ARCA:         infra.NewARCAClient(cfg.InvoicingURL, infra.DefaultARCACircuitBreaker()),
	})
}

func call(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Terminal-ID", "caja-1")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func uiToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "cajero-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return tok
}

func TestRouter_FailedCheckoutThenManualRetry(t *testing.T) {
	fake := &fakeBackends{}
	r := newServer(t, fake)
	token := uiToken(t, time.Now().Add(time.Hour))

	w := call(t, r, http.MethodPost, "/v1/cart/items", token, gin.H{"barcode": "7790000000011", "quantity": 2, "priceWithIVA": "50.00", "priceWithoutIVA": "41.32"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(t, r, http.MethodPost, "/v1/checkout", token, gin.H{"clientId": "c-ri", "paymentMethod": "Tarjeta"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "AFIP WSFE no disponible")
	assert.Contains(t, w.Body.String(), `"kind":"ServiceUnavailable"`)

	fake.mu.Lock()
	fake.invoiceUp = true
	fake.mu.Unlock()

	w = call(t, r, http.MethodPost, "/v1/checkout/retry", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res dto.InvoiceResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "A", res.InvoiceType)
	assert.Equal(t, "100.00", res.Total.StringFixed(2))
	assert.False(t, res.Testing)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.invoices, 2)
	assert.Equal(t, fake.idemKeys[0], fake.idemKeys[1])
	assert.NotEmpty(t, fake.idemKeys[0])
	assert.Equal(t, "Tarjeta", fake.invoices[1].PaymentMethod)
	assert.Equal(t, "30-71234567-1", fake.invoices[1].Client.CUIT)
	assert.InDelta(t, 100.0, fake.invoices[1].Total, 0.001)
	assert.Contains(t, fake.authSeen, "Bearer "+token)
}

func TestRouter_ExpiredTokenNeverReachesBackend(t *testing.T) {
	fake := &fakeBackends{}
	r := newServer(t, fake)

	w := call(t, r, http.MethodGet, "/v1/products", uiToken(t, time.Now().Add(-time.Hour)), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.authSeen)
}

func TestRouter_Health(t *testing.T) {
	r := newServer(t, &fakeBackends{})

	w := call(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "disabled", body["redis"])
	assert.Equal(t, "connected", body["backend"])
	assert.Equal(t, "closed", body["invoicing"])
}

func TestRouter_RequestIDAndCORS(t *testing.T) {
	r := newServer(t, &fakeBackends{})

	req := httptest.NewRequest(http.MethodOptions, "/v1/cart", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-Terminal-ID")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_CompanyConfig(t *testing.T) {
	fake := &fakeBackends{}
	r := newServer(t, fake)
	token := uiToken(t, time.Now().Add(time.Hour))

	w := call(t, r, http.MethodGet, "/v1/company-config", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Norte SRL")

	// TESTING_MODE=false: AFIP credentials are required.
	w = call(t, r, http.MethodPut, "/v1/company-config", token, gin.H{"cuit": "30712345671", "razonSocial": "Norte SRL"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = call(t, r, http.MethodPut, "/v1/company-config", token, gin.H{
		"cuit": "30712345671", "razonSocial": "Norte SRL", "usuario": "20111111112", "password": "x",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"cuit":"30-71234567-1"`)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.authSeen, 2)
	assert.Equal(t, "Bearer "+token, fake.authSeen[1])
}
