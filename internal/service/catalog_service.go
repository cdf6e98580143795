package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"arcapos/internal/dto"
	"arcapos/internal/infra"
	"arcapos/internal/model"
	"arcapos/internal/repository"

	"github.com/rs/zerolog/log"
)

var (
	ErrProductNotFound    = errors.New("producto no encontrado")
	ErrClientNotFound     = errors.New("cliente no encontrado")
	ErrInvalidBarcode     = errors.New("código de barras inválido: se esperan 8, 12, 13 o 14 dígitos")
	ErrCatalogUnavailable = errors.New("catálogo no disponible")
)

// CatalogBackend is the product/client REST backend.
type CatalogBackend interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	CreateClient(ctx context.Context, c model.Client) (*model.Client, error)
}

var _ CatalogBackend = (*infra.BackendClient)(nil)

// CatalogService reads products and clients through the backend. Read paths
// fall back to the last-known list when the backend fails; the bool result
// reports that the list is stale. CreateClient never falls back.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]model.Product, bool, error)
	ListClients(ctx context.Context) ([]model.Client, bool, error)
	CreateClient(ctx context.Context, req dto.CrearClienteRequest) (*model.Client, error)
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	FindProductByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	FindClient(ctx context.Context, id string) (*model.Client, error)
}

type catalogService struct {
	backend CatalogBackend
	cache   repository.CatalogCache
}

func NewCatalogService(backend CatalogBackend, cache repository.CatalogCache) CatalogService {
	if cache == nil {
		cache = repository.NewMemoryCatalogCache()
	}
	return &catalogService{backend: backend, cache: cache}
}

// ── Products ──────────────────────────────────────────────────────────────────

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, bool, error) {
	products, err := s.backend.ListProducts(ctx)
	if err == nil {
		if cerr := s.cache.PutProducts(ctx, products); cerr != nil {
			log.Warn().Err(cerr).Msg("catalog: cache products failed")
		}
		return products, false, nil
	}

	cached, cerr := s.cache.Products(ctx)
	if cerr != nil {
		return nil, false, fmt.Errorf("catalog: list products: %w: %w", ErrCatalogUnavailable, err)
	}
	log.Warn().Err(err).Int("count", len(cached)).Msg("catalog: backend unavailable, serving last-known products")
	return cached, true, nil
}

func (s *catalogService) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	products, _, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, ErrProductNotFound
}

func (s *catalogService) FindProductByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if !model.ValidBarcode(barcode) {
		return nil, ErrInvalidBarcode
	}
	products, _, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].Barcode == barcode {
			return &products[i], nil
		}
	}
	return nil, ErrProductNotFound
}

// ── Clients ───────────────────────────────────────────────────────────────────

func (s *catalogService) ListClients(ctx context.Context) ([]model.Client, bool, error) {
	clients, err := s.backend.ListClients(ctx)
	if err == nil {
		if cerr := s.cache.PutClients(ctx, clients); cerr != nil {
			log.Warn().Err(cerr).Msg("catalog: cache clients failed")
		}
		return clients, false, nil
	}

	cached, cerr := s.cache.Clients(ctx)
	if cerr != nil {
		return nil, false, fmt.Errorf("catalog: list clients: %w: %w", ErrCatalogUnavailable, err)
	}
	log.Warn().Err(err).Int("count", len(cached)).Msg("catalog: backend unavailable, serving last-known clients")
	return cached, true, nil
}

func (s *catalogService) FindClient(ctx context.Context, id string) (*model.Client, error) {
	clients, _, err := s.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].ID == id {
			return &clients[i], nil
		}
	}
	return nil, ErrClientNotFound
}

func (s *catalogService) CreateClient(ctx context.Context, req dto.CrearClienteRequest) (*model.Client, error) {
	c := model.Client{
		Name:            strings.TrimSpace(req.Name),
		Alias:           req.Alias,
		CUIT:            model.FormatCUIT(req.CUIT),
		TypeOfClient:    req.TypeOfClient,
		Email:           req.Email,
		FiscalDirection: req.FiscalDirection,
		Location:        req.Location,
		Province:        req.Province,
		Country:         req.Country,
		OwesDebt:        req.OwesDebt,
		DebtAmount:      req.DebtAmount,
	}
	created, err := s.backend.CreateClient(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("catalog: create client: %w", err)
	}

	// keep the fallback list current so a client created while the backend
	// later goes down can still be invoiced
	if cached, cerr := s.cache.Clients(ctx); cerr == nil {
		_ = s.cache.PutClients(ctx, append(cached, *created))
	}
	log.Info().Str("client_id", created.ID).Str("type", created.TypeOfClient).Msg("catalog: client created")
	return created, nil
}
