package dto

import "github.com/shopspring/decimal"

// CrearClienteRequest is the body of POST /v1/clients, forwarded to the client backend.
type CrearClienteRequest struct {
	Name            string          `json:"name"            validate:"required,min=2,max=120"`
	Alias           string          `json:"alias"           validate:"omitempty,max=60"`
	CUIT            string          `json:"cuit"            validate:"omitempty,max=13"`
	FiscalDirection string          `json:"fiscalDirection" validate:"omitempty,max=200"`
	Location        string          `json:"location"`
	Province        string          `json:"province"`
	Country         string          `json:"country"`
	TypeOfClient    string          `json:"typeOfClient"    validate:"omitempty,max=40"`
	Email           string          `json:"email"           validate:"omitempty,email"`
	OwesDebt        bool            `json:"owesDebt"`
	DebtAmount      decimal.Decimal `json:"debtAmount"      validate:"min=0"`
}
