package model

import (
	"github.com/shopspring/decimal"
)

// Product is owned by the product backend; the session service only reads it.
// Price is the tax-exclusive base price.
type Product struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Barcode  string          `json:"barcode,omitempty"`
	Category string          `json:"category,omitempty"`
}

// ValidBarcode reports whether s is a numeric EAN-8, UPC-A, EAN-13 or GTIN-14 code.
func ValidBarcode(s string) bool {
	switch len(s) {
	case 8, 12, 13, 14:
	default:
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
