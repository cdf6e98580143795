package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"arcapos/internal/model"
	"arcapos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps a single line. Larger merges are rejected so the
// quantity can never wrap around.
const MaxLineQuantity = 10000

// CartTotals is the aggregate for one tax mode.
type CartTotals struct {
	TotalItems   int
	TotalPrice   decimal.Decimal
	AveragePrice decimal.Decimal
}

// DetailedTotals carries both tax modes at once. IVAAmount is
// WithIVA - WithoutIVA after rounding, so the three always add up on a ticket.
type DetailedTotals struct {
	WithIVA    decimal.Decimal
	WithoutIVA decimal.Decimal
	TotalItems int
	AvgPrice   decimal.Decimal
	IVAAmount  decimal.Decimal
}

// CartStore is the single source of truth for one terminal's cart. All
// quantity and pricing math lives here. Every mutation is serialized by mu
// and written through to the repository; an empty cart deletes the record.
type CartStore struct {
	mu      sync.Mutex
	key     string
	repo    repository.CartRepository
	ivaRate decimal.Decimal
	lines   []model.CartLine
	now     func() time.Time
}

// NewCartStore returns an empty store persisted under key. Call Restore to
// load a previously saved cart.
func NewCartStore(key string, repo repository.CartRepository, ivaRate decimal.Decimal) *CartStore {
	if ivaRate.IsNegative() {
		ivaRate = DefaultIVARate
	}
	return &CartStore{key: key, repo: repo, ivaRate: ivaRate, now: time.Now}
}

// Key is the name of the persisted record.
func (s *CartStore) Key() string { return s.key }

// Restore replaces the in-memory lines with the persisted record. Lines that
// AddItem would have rejected (no id, quantity out of range, non-positive
// price, duplicate id) are dropped.
func (s *CartStore) Restore(ctx context.Context) error {
	lines, err := s.repo.Load(ctx, s.key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = s.lines[:0]
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" || l.Quantity < 1 || l.Quantity > MaxLineQuantity {
			continue
		}
		if !l.UnitPriceWithIVA.IsPositive() || !l.UnitPriceWithoutIVA.IsPositive() {
			log.Warn().Str("key", s.key).Str("product_id", l.ProductID).Msg("cart: restored line without valid prices dropped")
			continue
		}
		if _, dup := seen[l.ProductID]; dup {
			continue
		}
		seen[l.ProductID] = struct{}{}
		s.lines = append(s.lines, l)
	}
	log.Debug().Str("key", s.key).Int("lines", len(s.lines)).Msg("cart: restored")
	return nil
}

// ── Mutations ─────────────────────────────────────────────────────────────────

// AddItem merges by product id: quantity is additive, prices are overwritten
// with the ones given here. A zero price is treated as "not given" and derived
// from the other one at the store's IVA rate. Rejected calls leave the cart
// untouched.
func (s *CartStore) AddItem(ctx context.Context, p model.Product, quantity int, priceWithIVA, priceWithoutIVA decimal.Decimal) error {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return &CartError{Kind: CartInvalidProduct, Message: "product has no identifier"}
	}
	withIVA, withoutIVA, err := s.resolvePrices(priceWithIVA, priceWithoutIVA)
	if err != nil {
		return err
	}
	if quantity < 1 {
		quantity = 1
	}
	if quantity > MaxLineQuantity {
		return quantityError(quantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		line := &s.lines[i]
		if line.Quantity+quantity > MaxLineQuantity {
			return quantityError(line.Quantity + quantity)
		}
		line.Quantity += quantity
		line.UnitPriceWithIVA = withIVA
		line.UnitPriceWithoutIVA = withoutIVA
	} else {
		s.lines = append(s.lines, model.CartLine{
			ProductID:           id,
			Name:                p.Name,
			Barcode:             p.Barcode,
			Quantity:            quantity,
			UnitPriceWithIVA:    withIVA,
			UnitPriceWithoutIVA: withoutIVA,
			AddedAt:             s.now(),
		})
	}
	s.persistLocked(ctx)
	return nil
}

func quantityError(q int) error {
	return &CartError{Kind: CartInvalidQuantity, Message: fmt.Sprintf("quantity %d exceeds %d per line", q, MaxLineQuantity)}
}

func (s *CartStore) resolvePrices(withIVA, withoutIVA decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if withIVA.IsNegative() || withoutIVA.IsNegative() {
		return decimal.Zero, decimal.Zero, &CartError{Kind: CartInvalidPrice, Message: "prices must not be negative"}
	}
	switch {
	case withIVA.IsPositive() && withoutIVA.IsPositive():
		return withIVA, withoutIVA, nil
	case withoutIVA.IsPositive():
		return AddIVA(withoutIVA, s.ivaRate), withoutIVA, nil
	case withIVA.IsPositive():
		return withIVA, RemoveIVA(withIVA, s.ivaRate), nil
	default:
		return decimal.Zero, decimal.Zero, &CartError{Kind: CartInvalidPrice, Message: "at least one price must be positive"}
	}
}

// UpdateQuantity sets the line's quantity exactly. newQuantity <= 0 removes
// the line. An absent product is a no-op.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, newQuantity int) error {
	if newQuantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	if newQuantity > MaxLineQuantity {
		return quantityError(newQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		log.Debug().Str("key", s.key).Str("product_id", productID).Msg("cart: update on absent product ignored")
		return nil
	}
	if s.lines[i].Quantity == newQuantity {
		return nil
	}
	s.lines[i].Quantity = newQuantity
	s.persistLocked(ctx)
	return nil
}

// RemoveItem is idempotent.
func (s *CartStore) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return nil
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.persistLocked(ctx)
	return nil
}

// Clear empties the cart and deletes the persisted record.
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.persistLocked(ctx)
}

// RemoveInvoiced takes the invoiced quantities out of the cart once the
// invoice was issued. Lines added or grown while the submission was in flight
// keep whatever was not invoiced.
func (s *CartStore) RemoveInvoiced(ctx context.Context, invoiced []model.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, inv := range invoiced {
		i := s.indexOf(inv.ProductID)
		if i < 0 {
			continue
		}
		changed = true
		if left := s.lines[i].Quantity - inv.Quantity; left > 0 {
			s.lines[i].Quantity = left
			continue
		}
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	if changed {
		s.persistLocked(ctx)
	}
}

// persistLocked writes the current lines through to the repository. A failed
// write is logged; the in-memory mutation stands. Must be called under mu.
func (s *CartStore) persistLocked(ctx context.Context) {
	var err error
	if len(s.lines) == 0 {
		err = s.repo.Delete(ctx, s.key)
	} else {
		err = s.repo.Save(ctx, s.key, s.lines)
	}
	if err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("cart: persist failed")
	}
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *CartStore) indexOf(productID string) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Item returns a copy of the line for productID.
func (s *CartStore) Item(productID string) (model.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(productID); i >= 0 {
		return s.lines[i], true
	}
	return model.CartLine{}, false
}

func (s *CartStore) Contains(productID string) bool {
	_, ok := s.Item(productID)
	return ok
}

// Lines returns a copy of the lines in insertion order.
func (s *CartStore) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.CartLine(nil), s.lines...)
}

func (s *CartStore) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Totals sums exactly and rounds once. AveragePrice is 0 on an empty cart.
func (s *CartStore) Totals(mode model.TaxMode) CartTotals {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, sum := 0, decimal.Zero
	for _, l := range s.lines {
		items += l.Quantity
		sum = sum.Add(l.Subtotal(mode))
	}
	return CartTotals{
		TotalItems:   items,
		TotalPrice:   Round2(sum),
		AveragePrice: average(sum, items),
	}
}

// DetailedTotals is all zeros on an empty cart. AvgPrice is the IVA-inclusive
// average unit price.
func (s *CartStore) DetailedTotals() DetailedTotals {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := 0
	withIVA, withoutIVA := decimal.Zero, decimal.Zero
	for _, l := range s.lines {
		items += l.Quantity
		withIVA = withIVA.Add(l.Subtotal(model.WithIVA))
		withoutIVA = withoutIVA.Add(l.Subtotal(model.WithoutIVA))
	}
	w, wo := Round2(withIVA), Round2(withoutIVA)
	return DetailedTotals{
		WithIVA:    w,
		WithoutIVA: wo,
		TotalItems: items,
		AvgPrice:   average(withIVA, items),
		IVAAmount:  w.Sub(wo),
	}
}

func average(sum decimal.Decimal, items int) decimal.Decimal {
	if items == 0 {
		return decimal.Zero
	}
	return Round2(sum.Div(decimal.NewFromInt(int64(items))))
}
