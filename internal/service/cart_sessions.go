package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"arcapos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultTerminal is used when a request carries no terminal id.
const DefaultTerminal = "default"

var terminalIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ErrInvalidTerminal rejects terminal ids that cannot be used in a record key.
var ErrInvalidTerminal = errors.New("invalid terminal id")

// CartSessions owns one CartStore per terminal. A store is restored from the
// repository the first time its terminal is seen; a failed restore is not
// cached so the next request tries again.
type CartSessions struct {
	mu        sync.Mutex
	stores    map[string]*CartStore
	repo      repository.CartRepository
	keyPrefix string
	ivaRate   decimal.Decimal
}

func NewCartSessions(repo repository.CartRepository, keyPrefix string, ivaRate decimal.Decimal) *CartSessions {
	if keyPrefix == "" {
		keyPrefix = "shopping_cart"
	}
	return &CartSessions{
		stores:    make(map[string]*CartStore),
		repo:      repo,
		keyPrefix: keyPrefix,
		ivaRate:   ivaRate,
	}
}

// ValidTerminalID reports whether id may name a terminal.
func ValidTerminalID(id string) bool {
	return terminalIDPattern.MatchString(id)
}

// Get returns the terminal's store, restoring it on first use. An empty
// terminal id selects DefaultTerminal.
func (s *CartSessions) Get(ctx context.Context, terminal string) (*CartStore, error) {
	if terminal == "" {
		terminal = DefaultTerminal
	}
	if !ValidTerminalID(terminal) {
		return nil, fmt.Errorf("cart: %w: %q", ErrInvalidTerminal, terminal)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[terminal]; ok {
		return store, nil
	}
	store := NewCartStore(s.keyPrefix+":"+terminal, s.repo, s.ivaRate)
	if err := store.Restore(ctx); err != nil {
		return nil, fmt.Errorf("cart: restore %s: %w", terminal, err)
	}
	s.stores[terminal] = store
	log.Info().Str("terminal", terminal).Msg("cart: session opened")
	return store, nil
}
