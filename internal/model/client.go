package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Client is a customer as stored by the client backend.
// TypeOfClient carries the fiscal classification: "Consumidor Final" (CF),
// "Responsable Inscripto" (RI), "Exento" (EX) or "Monotributo".
type Client struct {
	ID              string          `json:"_id,omitempty"`
	Name            string          `json:"name"`
	Alias           string          `json:"alias,omitempty"`
	CUIT            string          `json:"cuit,omitempty"`
	TypeOfClient    string          `json:"typeOfClient,omitempty"`
	Email           string          `json:"email,omitempty"`
	FiscalDirection string          `json:"fiscalDirection,omitempty"`
	Location        string          `json:"location,omitempty"`
	Province        string          `json:"province,omitempty"`
	Country         string          `json:"country,omitempty"`
	OwesDebt        bool            `json:"owesDebt,omitempty"`
	DebtAmount      decimal.Decimal `json:"debtAmount"`
}

// HasCUIT reports whether the client carries a usable tax id ("0" is the
// placeholder the backend stores for anonymous buyers).
func (c *Client) HasCUIT() bool {
	if c == nil {
		return false
	}
	cuit := strings.TrimSpace(c.CUIT)
	return cuit != "" && cuit != "0"
}

// NormalizeCUIT strips everything but digits.
func NormalizeCUIT(cuit string) string {
	var b strings.Builder
	for _, r := range cuit {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCUIT renders an 11-digit CUIT as XX-XXXXXXXX-X. Other lengths are
// returned as bare digits.
func FormatCUIT(cuit string) string {
	d := NormalizeCUIT(cuit)
	if len(d) != 11 {
		return d
	}
	return d[:2] + "-" + d[2:10] + "-" + d[10:]
}
