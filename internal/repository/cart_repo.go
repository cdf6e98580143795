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
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository persists the serialized cart of one terminal under a named
// record. A missing record loads as an empty cart.
type CartRepository interface {
	Load(ctx context.Context, key string) ([]model.CartLine, error)
	Save(ctx context.Context, key string, lines []model.CartLine) error
	Delete(ctx context.Context, key string) error
}

// decodeLines treats a corrupt record as an empty cart; the UI must still
// come up when a stale or hand-edited record is present.
func decodeLines(key string, raw []byte) []model.CartLine {
	var lines []model.CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cart: corrupt persisted record, starting empty")
		return nil
	}
	return lines
}

// ── Redis ─────────────────────────────────────────────────────────────────────

type redisCartRepo struct{ rdb *redis.Client }

// NewRedisCartRepository stores each cart as a JSON array under key, no TTL.
func NewRedisCartRepository(rdb *redis.Client) CartRepository {
	return &redisCartRepo{rdb: rdb}
}

func (r *redisCartRepo) Load(ctx context.Context, key string) ([]model.CartLine, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart repo: redis get %s: %w", key, err)
	}
	return decodeLines(key, raw), nil
}

func (r *redisCartRepo) Save(ctx context.Context, key string, lines []model.CartLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("cart repo: marshal: %w", err)
	}
	if err := r.rdb.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("cart repo: redis set %s: %w", key, err)
	}
	return nil
}

func (r *redisCartRepo) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cart repo: redis del %s: %w", key, err)
	}
	return nil
}

// ── Postgres ──────────────────────────────────────────────────────────────────

type gormCartRepo struct{ db *gorm.DB }

// NewGormCartRepository stores each cart as a row of cart_snapshots.
func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &gormCartRepo{db: db}
}

func (r *gormCartRepo) Load(ctx context.Context, key string) ([]model.CartLine, error) {
	var snap model.CartSnapshot
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart repo: load %s: %w", key, err)
	}
	return decodeLines(key, []byte(snap.Lines)), nil
}

func (r *gormCartRepo) Save(ctx context.Context, key string, lines []model.CartLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("cart repo: marshal: %w", err)
	}
	snap := model.CartSnapshot{Key: key, Lines: string(raw), UpdatedAt: time.Now()}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"lines", "updated_at"}),
	}).Create(&snap).Error
	if err != nil {
		return fmt.Errorf("cart repo: save %s: %w", key, err)
	}
	return nil
}

func (r *gormCartRepo) Delete(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Where("key = ?", key).Delete(&model.CartSnapshot{}).Error
	if err != nil {
		return fmt.Errorf("cart repo: delete %s: %w", key, err)
	}
	return nil
}

// ── Memory ────────────────────────────────────────────────────────────────────

// MemoryCartRepository keeps records in process memory. Used by tests and by
// CART_STORE=memory for a single-till demo.
type MemoryCartRepository struct {
	mu      sync.Mutex
	records map[string][]byte
}

func NewMemoryCartRepository() *MemoryCartRepository {
	return &MemoryCartRepository{records: make(map[string][]byte)}
}

var _ CartRepository = (*MemoryCartRepository)(nil)

func (r *MemoryCartRepository) Load(_ context.Context, key string) ([]model.CartLine, error) {
	r.mu.Lock()
	raw, ok := r.records[key]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return decodeLines(key, raw), nil
}

func (r *MemoryCartRepository) Save(_ context.Context, key string, lines []model.CartLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("cart repo: marshal: %w", err)
	}
	r.mu.Lock()
	r.records[key] = raw
	r.mu.Unlock()
	return nil
}

func (r *MemoryCartRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.records, key)
	r.mu.Unlock()
	return nil
}

// Has reports whether a record exists for key.
func (r *MemoryCartRepository) Has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[key]
	return ok
}

// Put stores raw bytes under key, bypassing encoding.
func (r *MemoryCartRepository) Put(key string, raw []byte) {
	r.mu.Lock()
	r.records[key] = raw
	r.mu.Unlock()
}
