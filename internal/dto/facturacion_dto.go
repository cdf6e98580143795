package dto

import "github.com/shopspring/decimal"

// ─── Checkout (UI → session service) ─────────────────────────────────────────

// ClienteInput is inline client data for a checkout against a client that is
// not (yet) stored in the client backend.
type ClienteInput struct {
	Name            string `json:"name"            validate:"required,min=1,max=120"`
	CUIT            string `json:"cuit"            validate:"omitempty,max=13"`
	TypeOfClient    string `json:"typeOfClient"    validate:"omitempty,max=40"`
	Email           string `json:"email"           validate:"omitempty,email"`
	FiscalDirection string `json:"fiscalDirection" validate:"omitempty,max=200"`
}

// CheckoutRequest: ClientID selects a stored client, Client supplies one
// inline. Testing defaults to TESTING_MODE when omitted.
type CheckoutRequest struct {
	ClientID      string        `json:"clientId"`
	Client        *ClienteInput `json:"client"        validate:"omitempty"`
	PaymentMethod string        `json:"paymentMethod" validate:"omitempty,max=40"`
	Testing       *bool         `json:"testing"`
}

// CheckoutPreviewResponse describes what a checkout would submit.
type CheckoutPreviewResponse struct {
	InvoiceLetter      string          `json:"invoiceLetter"`
	InvoiceDescription string          `json:"invoiceDescription"`
	Total              decimal.Decimal `json:"total"`
	TotalWithoutIVA    decimal.Decimal `json:"totalWithoutIVA"`
	IVAAmount          decimal.Decimal `json:"ivaAmount"`
	Lines              int             `json:"lines"`
	PaymentMethod      string          `json:"paymentMethod"`
	Testing            bool            `json:"testing"`
}

// ClassifyRequest is the body of POST /v1/invoice-type. An empty body
// classifies an anonymous buyer.
type ClassifyRequest struct {
	ClientID string        `json:"clientId"`
	Client   *ClienteInput `json:"client" validate:"omitempty"`
}

// ClassifyResponse is the result of POST /v1/invoice-type.
type ClassifyResponse struct {
	Letter      string `json:"letter"`
	Description string `json:"description"`
}

// ─── Invoicing backend wire contract ─────────────────────────────────────────

// InvoiceClientPayload carries the client fiscal fields.
type InvoiceClientPayload struct {
	Name          string `json:"name"`
	CUIT          string `json:"cuit"`
	TypeOfClient  string `json:"typeOfClient"`
	Email         string `json:"email"`
	FiscalAddress string `json:"fiscalAddress"`
}

type InvoiceLinePayload struct {
	Name                string  `json:"name"`
	Quantity            int     `json:"quantity"`
	UnitPriceWithIVA    float64 `json:"unitPriceWithIVA"`
	UnitPriceWithoutIVA float64 `json:"unitPriceWithoutIVA"`
	Barcode             string  `json:"barcode"`
	Description         string  `json:"description"`
}

// GenerateInvoiceRequest is the body of POST {INVOICING_URL}/generate-invoice.
type GenerateInvoiceRequest struct {
	Client        InvoiceClientPayload `json:"client"`
	Lines         []InvoiceLinePayload `json:"lines"`
	PaymentMethod string               `json:"paymentMethod"`
	Testing       bool                 `json:"testing"`
	InvoiceType   string               `json:"invoiceType"`
	Total         float64              `json:"total"`
}

// GenerateInvoiceResponse is the success body returned by the invoicing backend.
// Some backend versions answer 200 with success=false and an error message.
type GenerateInvoiceResponse struct {
	Success       *bool   `json:"success,omitempty"`
	Error         string  `json:"error,omitempty"`
	InvoiceNumber string  `json:"invoiceNumber"`
	CAE           string  `json:"cae"`
	InvoiceType   string  `json:"invoiceType"`
	CAEExpiry     string  `json:"caeExpiry"`
	IssuedAt      string  `json:"issuedAt"`
	Total         float64 `json:"total"`
	PDFFileName   string  `json:"pdfFileName"`
	DownloadURL   string  `json:"downloadUrl"`
	ViewURL       string  `json:"viewUrl"`
}

// InvoiceErrorResponse is the failure body ({"error": "..."}).
type InvoiceErrorResponse struct {
	Error string `json:"error"`
}

// InvoiceResult is the normalized outcome of a submission. The listing
// endpoint returns the same shape, so checkout and reporting share it.
type InvoiceResult struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	CAE           string          `json:"cae"`
	InvoiceType   string          `json:"invoiceType"`
	ClientName    string          `json:"clientName,omitempty"`
	Total         decimal.Decimal `json:"total"`
	IssuedAt      string          `json:"issuedAt"`
	CAEExpiry     string          `json:"caeExpiry"`
	Testing       bool            `json:"testing"`
	PDFFileName   string          `json:"pdfFileName,omitempty"`
	ViewURL       string          `json:"viewUrl,omitempty"`
	DownloadURL   string          `json:"downloadUrl,omitempty"`
}

// ─── Invoice listing ─────────────────────────────────────────────────────────

// InvoiceFilter is bound from the query string of GET /v1/invoices.
type InvoiceFilter struct {
	Page    int    `form:"page,default=1"          validate:"min=1"`
	Limit   int    `form:"limit,default=20"        validate:"min=1,max=100"`
	SortBy  string `form:"sortBy,default=issuedAt" validate:"oneof=issuedAt total invoiceNumber clientName"`
	Order   string `form:"order,default=desc"      validate:"oneof=asc desc"`
	Cliente string `form:"cliente"`
	Testing string `form:"testing"                 validate:"omitempty,oneof=true false"`
	Status  string `form:"status"`
}

type InvoicePagination struct {
	CurrentPage   int  `json:"currentPage"`
	TotalPages    int  `json:"totalPages"`
	TotalInvoices int  `json:"totalInvoices"`
	HasNext       bool `json:"hasNext"`
	HasPrev       bool `json:"hasPrev"`
}

type InvoiceStats struct {
	TotalInvoices int     `json:"totalInvoices"`
	TotalAmount   float64 `json:"totalAmount"`
	OfficialCount int     `json:"officialCount"`
	TestingCount  int     `json:"testingCount"`
	AvgAmount     float64 `json:"avgAmount"`
}

type InvoiceListResponse struct {
	Invoices   []InvoiceResult   `json:"invoices"`
	Pagination InvoicePagination `json:"pagination"`
	Stats      InvoiceStats      `json:"stats"`
}
