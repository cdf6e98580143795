package service

import "github.com/shopspring/decimal"

// DefaultIVARate is the standard Argentine IVA rate.
var DefaultIVARate = decimal.RequireFromString("0.21")

// AddIVA returns base × (1 + rate), rounded to cents.
func AddIVA(base, rate decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(decimal.NewFromInt(1).Add(rate)))
}

// RemoveIVA returns gross / (1 + rate), rounded to cents.
func RemoveIVA(gross, rate decimal.Decimal) decimal.Decimal {
	return Round2(gross.Div(decimal.NewFromInt(1).Add(rate)))
}

// Round2 rounds half away from zero to two decimals.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
