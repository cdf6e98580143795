package service

import (
	"strings"

	"arcapos/internal/model"
)

// InvoiceTypeResolver maps a client's fiscal classification to an invoice
// letter. It is the only place that rule lives; previews, labels and
// submissions all go through it.
//
// ExentoLetter is the letter issued to Exento clients. The rule table says
// A; some deployments issue E instead, so it is configurable.
type InvoiceTypeResolver struct {
	ExentoLetter model.InvoiceLetter
}

// NewInvoiceTypeResolver accepts "A" or "E" for Exento clients; anything else
// falls back to A.
func NewInvoiceTypeResolver(exentoLetter string) InvoiceTypeResolver {
	letter := model.InvoiceLetter(strings.ToUpper(strings.TrimSpace(exentoLetter)))
	if letter != model.LetterE {
		letter = model.LetterA
	}
	return InvoiceTypeResolver{ExentoLetter: letter}
}

var consumidorFinal = model.InvoiceType{Letter: model.LetterC, Description: "Consumidor Final"}

// Classify never fails: missing or unrecognized input resolves to C.
func (r InvoiceTypeResolver) Classify(c *model.Client) model.InvoiceType {
	if c == nil || !c.HasCUIT() {
		return consumidorFinal
	}
	switch normalizeClientType(c.TypeOfClient) {
	case "RI", "RESPONSABLE INSCRIPTO":
		return model.InvoiceType{Letter: model.LetterA, Description: "Discrimina IVA"}
	case "EX", "EXENTO":
		letter := r.ExentoLetter
		if letter == "" {
			letter = model.LetterA
		}
		return model.InvoiceType{Letter: letter, Description: "Exento"}
	case "MONOTRIBUTO", "MT":
		return model.InvoiceType{Letter: model.LetterB, Description: "No discrimina IVA"}
	default:
		return consumidorFinal
	}
}

// Classify resolves with the default table (Exento → A).
func Classify(c *model.Client) model.InvoiceType {
	return InvoiceTypeResolver{ExentoLetter: model.LetterA}.Classify(c)
}

// normalizeClientType upper-cases and folds "_" and repeated spaces so that
// "Responsable_Inscripto" and "responsable  inscripto" match.
func normalizeClientType(s string) string {
	s = strings.ToUpper(strings.ReplaceAll(s, "_", " "))
	return strings.Join(strings.Fields(s), " ")
}
