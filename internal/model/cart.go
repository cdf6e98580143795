package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxMode selects which of the two stored unit prices a total is computed from.
type TaxMode string

const (
	WithIVA    TaxMode = "with_iva"
	WithoutIVA TaxMode = "without_iva"
)

// Valid reports whether m is a known tax mode.
func (m TaxMode) Valid() bool {
	return m == WithIVA || m == WithoutIVA
}

// CartLine is one product in the cart. Name and Barcode are snapshotted from
// the Product when the line is added; both prices are fixed at add time and do
// not follow later catalog changes.
type CartLine struct {
	ProductID           string          `json:"productId"`
	Name                string          `json:"name"`
	Barcode             string          `json:"barcode,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPriceWithIVA    decimal.Decimal `json:"unitPriceWithIVA"`
	UnitPriceWithoutIVA decimal.Decimal `json:"unitPriceWithoutIVA"`
	AddedAt             time.Time       `json:"addedAt"`
}

// Subtotal returns quantity × the unit price for the given mode, unrounded.
func (l CartLine) Subtotal(mode TaxMode) decimal.Decimal {
	price := l.UnitPriceWithIVA
	if mode == WithoutIVA {
		price = l.UnitPriceWithoutIVA
	}
	return price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot is the postgres row holding a persisted cart. Lines is the
// JSON-encoded []CartLine.
type CartSnapshot struct {
	Key       string `gorm:"type:varchar(128);primaryKey"`
	Lines     string `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (CartSnapshot) TableName() string { return "cart_snapshots" }
