package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"arcapos/internal/model"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no last-known list is stored.
var ErrCacheMiss = errors.New("catalog cache: miss")

// CatalogCache holds the last product and client lists the backend returned,
// served when the backend is unreachable.
type CatalogCache interface {
	PutProducts(ctx context.Context, products []model.Product) error
	Products(ctx context.Context) ([]model.Product, error)
	PutClients(ctx context.Context, clients []model.Client) error
	Clients(ctx context.Context) ([]model.Client, error)
}

const (
	productsCacheKey = "catalog:products"
	clientsCacheKey  = "catalog:clients"
)

// ── Redis ─────────────────────────────────────────────────────────────────────

type redisCatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCatalogCache(rdb *redis.Client, ttl time.Duration) CatalogCache {
	return &redisCatalogCache{rdb: rdb, ttl: ttl}
}

func (c *redisCatalogCache) PutProducts(ctx context.Context, products []model.Product) error {
	return c.put(ctx, productsCacheKey, products)
}

func (c *redisCatalogCache) Products(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	if err := c.get(ctx, productsCacheKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *redisCatalogCache) PutClients(ctx context.Context, clients []model.Client) error {
	return c.put(ctx, clientsCacheKey, clients)
}

func (c *redisCatalogCache) Clients(ctx context.Context) ([]model.Client, error) {
	var out []model.Client
	if err := c.get(ctx, clientsCacheKey, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *redisCatalogCache) put(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("catalog cache: marshal %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("catalog cache: set %s: %w", key, err)
	}
	return nil
}

func (c *redisCatalogCache) get(ctx context.Context, key string, dst any) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("catalog cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("catalog cache: decode %s: %w", key, err)
	}
	return nil
}

// ── Memory ────────────────────────────────────────────────────────────────────

type memoryCatalogCache struct {
	mu       sync.RWMutex
	products []model.Product
	clients  []model.Client
	hasProds bool
	hasCli   bool
}

// NewMemoryCatalogCache keeps the lists for the life of the process.
func NewMemoryCatalogCache() CatalogCache {
	return &memoryCatalogCache{}
}

func (c *memoryCatalogCache) PutProducts(_ context.Context, products []model.Product) error {
	c.mu.Lock()
	c.products = append([]model.Product(nil), products...)
	c.hasProds = true
	c.mu.Unlock()
	return nil
}

func (c *memoryCatalogCache) Products(context.Context) ([]model.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasProds {
		return nil, ErrCacheMiss
	}
	return append([]model.Product(nil), c.products...), nil
}

func (c *memoryCatalogCache) PutClients(_ context.Context, clients []model.Client) error {
	c.mu.Lock()
	c.clients = append([]model.Client(nil), clients...)
	c.hasCli = true
	c.mu.Unlock()
	return nil
}

func (c *memoryCatalogCache) Clients(context.Context) ([]model.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasCli {
		return nil, ErrCacheMiss
	}
	return append([]model.Client(nil), c.clients...), nil
}
