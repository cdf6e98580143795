package model

// InvoiceLetter is the Argentine fiscal invoice category.
type InvoiceLetter string

const (
	LetterA InvoiceLetter = "A"
	LetterB InvoiceLetter = "B"
	LetterC InvoiceLetter = "C"
	LetterE InvoiceLetter = "E"
)

// InvoiceType is the letter plus the label shown next to it.
type InvoiceType struct {
	Letter      InvoiceLetter `json:"letter"`
	Description string        `json:"description"`
}

// DiscriminatesIVA reports whether invoices of this letter itemize IVA.
// Factura C never does.
func (t InvoiceType) DiscriminatesIVA() bool {
	return t.Letter != LetterC
}
