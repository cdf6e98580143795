package service

import (
	"context"
	"fmt"

	"arcapos/internal/dto"
	"arcapos/internal/infra"
)

// InvoiceLister is the listing side of the invoicing backend.
type InvoiceLister interface {
	ListInvoices(ctx context.Context, f dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
}

var _ InvoiceLister = (*infra.ARCAClient)(nil)

// InvoiceService serves the reporting view. Results share dto.InvoiceResult
// with checkout.
type InvoiceService interface {
	List(ctx context.Context, f dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
}

type invoiceService struct {
	lister InvoiceLister
}

func NewInvoiceService(lister InvoiceLister) InvoiceService {
	return &invoiceService{lister: lister}
}

func (s *invoiceService) List(ctx context.Context, f dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.SortBy == "" {
		f.SortBy = "issuedAt"
	}
	if f.Order == "" {
		f.Order = "desc"
	}

	out, err := s.lister.ListInvoices(ctx, f)
	if err != nil {
		return nil, classifySubmitError(fmt.Errorf("invoice: list: %w", err))
	}
	if out.Invoices == nil {
		out.Invoices = []dto.InvoiceResult{}
	}
	return out, nil
}
