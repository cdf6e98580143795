package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AgregarItemRequest adds a product to the cart. Either ProductID or Barcode
// identifies the product; at least one of the two prices must be positive.
type AgregarItemRequest struct {
	ProductID       string          `json:"productId"       validate:"required_without=Barcode"`
	Barcode         string          `json:"barcode"         validate:"omitempty,numeric,min=8,max=14"`
	Quantity        int             `json:"quantity"        validate:"max=10000"`
	PriceWithIVA    decimal.Decimal `json:"priceWithIVA"`
	PriceWithoutIVA decimal.Decimal `json:"priceWithoutIVA"`
}

type ActualizarCantidadRequest struct {
	Quantity int `json:"quantity" validate:"max=10000"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CartLineResponse struct {
	ProductID           string          `json:"productId"`
	Name                string          `json:"name"`
	Barcode             string          `json:"barcode,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPriceWithIVA    decimal.Decimal `json:"unitPriceWithIVA"`
	UnitPriceWithoutIVA decimal.Decimal `json:"unitPriceWithoutIVA"`
	SubtotalWithIVA     decimal.Decimal `json:"subtotalWithIVA"`
	AddedAt             time.Time       `json:"addedAt"`
}

// CartTotalsResponse is the per-mode aggregate.
type CartTotalsResponse struct {
	TotalItems   int             `json:"totalItems"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

type DetailedTotalsResponse struct {
	WithIVA    decimal.Decimal `json:"withIVA"`
	WithoutIVA decimal.Decimal `json:"withoutIVA"`
	TotalItems int             `json:"totalItems"`
	AvgPrice   decimal.Decimal `json:"avgPrice"`
	IVAAmount  decimal.Decimal `json:"ivaAmount"`
}

type CartResponse struct {
	Terminal        string                 `json:"terminal"`
	Lines           []CartLineResponse     `json:"lines"`
	UniqueProducts  int                    `json:"uniqueProducts"`
	TotalWithIVA    CartTotalsResponse     `json:"totalWithIVA"`
	TotalWithoutIVA CartTotalsResponse     `json:"totalWithoutIVA"`
	Detailed        DetailedTotalsResponse `json:"detailed"`
}
