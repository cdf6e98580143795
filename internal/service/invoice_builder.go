package service

import (
	"strings"
	"time"

	"arcapos/internal/dto"
	"arcapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPaymentMethod is used when the checkout names none.
const DefaultPaymentMethod = "Efectivo"

// InvoiceRequest is an immutable snapshot of one checkout. Lines are copied
// at build time so later cart edits never reach an in-flight submission.
type InvoiceRequest struct {
	IdempotencyKey  string
	Terminal        string
	Client          model.Client
	Lines           []model.CartLine
	PaymentMethod   string
	Testing         bool
	InvoiceType     model.InvoiceType
	Total           decimal.Decimal
	TotalWithoutIVA decimal.Decimal
	CreatedAt       time.Time
}

// IVAAmount is Total - TotalWithoutIVA.
func (r *InvoiceRequest) IVAAmount() decimal.Decimal {
	return r.Total.Sub(r.TotalWithoutIVA)
}

// InvoiceRequestBuilder turns cart contents plus a client into an
// InvoiceRequest. It performs no I/O and does not touch the cart.
type InvoiceRequestBuilder struct {
	Resolver InvoiceTypeResolver
	now      func() time.Time
}

func NewInvoiceRequestBuilder(resolver InvoiceTypeResolver) *InvoiceRequestBuilder {
	return &InvoiceRequestBuilder{Resolver: resolver, now: time.Now}
}

// Build fails with EmptyCart before looking at the client, so an empty cart
// is reported even when the client is also missing.
func (b *InvoiceRequestBuilder) Build(terminal string, client *model.Client, lines []model.CartLine, paymentMethod string, testing bool) (*InvoiceRequest, error) {
	if len(lines) == 0 {
		return nil, &InvoiceError{Kind: InvoiceEmptyCart, Message: "no hay productos en el carrito"}
	}
	if client == nil || strings.TrimSpace(client.Name) == "" {
		return nil, &InvoiceError{Kind: InvoiceInvalidClient, Message: "datos del cliente incompletos"}
	}
	if strings.TrimSpace(paymentMethod) == "" {
		paymentMethod = DefaultPaymentMethod
	}

	total, totalWithout := decimal.Zero, decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal(model.WithIVA))
		totalWithout = totalWithout.Add(l.Subtotal(model.WithoutIVA))
	}

	now := time.Now
	if b.now != nil {
		now = b.now
	}
	return &InvoiceRequest{
		IdempotencyKey:  uuid.NewString(),
		Terminal:        terminal,
		Client:          *client,
		Lines:           append([]model.CartLine(nil), lines...),
		PaymentMethod:   strings.TrimSpace(paymentMethod),
		Testing:         testing,
		InvoiceType:     b.Resolver.Classify(client),
		Total:           Round2(total),
		TotalWithoutIVA: Round2(totalWithout),
		CreatedAt:       now(),
	}, nil
}

// BuildInvoiceRequest builds with the default invoice-type table.
func BuildInvoiceRequest(client *model.Client, lines []model.CartLine, paymentMethod string, testing bool) (*InvoiceRequest, error) {
	return NewInvoiceRequestBuilder(InvoiceTypeResolver{ExentoLetter: model.LetterA}).
		Build(DefaultTerminal, client, lines, paymentMethod, testing)
}

// Payload renders the request in the invoicing backend's wire format.
func (r *InvoiceRequest) Payload() dto.GenerateInvoiceRequest {
	lines := make([]dto.InvoiceLinePayload, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, dto.InvoiceLinePayload{
			Name:                l.Name,
			Quantity:            l.Quantity,
			UnitPriceWithIVA:    l.UnitPriceWithIVA.InexactFloat64(),
			UnitPriceWithoutIVA: l.UnitPriceWithoutIVA.InexactFloat64(),
			Barcode:             l.Barcode,
			Description:         lineDescription(l),
		})
	}
	cuit := ""
	if r.Client.HasCUIT() {
		cuit = model.FormatCUIT(r.Client.CUIT)
	}
	return dto.GenerateInvoiceRequest{
		Client: dto.InvoiceClientPayload{
			Name:          strings.TrimSpace(r.Client.Name),
			CUIT:          cuit,
			TypeOfClient:  r.Client.TypeOfClient,
			Email:         r.Client.Email,
			FiscalAddress: r.Client.FiscalDirection,
		},
		Lines:         lines,
		PaymentMethod: r.PaymentMethod,
		Testing:       r.Testing,
		InvoiceType:   string(r.InvoiceType.Letter),
		Total:         r.Total.InexactFloat64(),
	}
}

func lineDescription(l model.CartLine) string {
	if l.Name == "" {
		return l.ProductID
	}
	return l.Name
}
