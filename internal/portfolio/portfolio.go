package portfolio

import (
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"

	"github.com/STTM-NSU/financeel/internal/kv"
	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/shopspring/decimal"
)

var ErrIndexOutOfRange = errors.New("position index out of range")

// Book is the ordered set of holdings. Inputs are trusted, validation belongs to the caller.
type Book struct {
	store  kv.Store
	saveMu sync.Mutex

	known   map[string]model.SymbolInfo
	palette []string

	mu        sync.RWMutex
	positions []model.Position
}

func NewBook(store kv.Store, known map[string]model.SymbolInfo, palette []string) *Book {
	if len(palette) == 0 {
		palette = model.Palette
	}
	return &Book{
		store:     store,
		known:     known,
		palette:   palette,
		positions: make([]model.Position, 0),
	}
}

// Add creates the position or merges into the existing one. On merge the average cost is
// re-weighted when both costs are known, adopted when only the new one is, and kept
// when the new one is absent. A non-empty name replaces the stored one.
func (b *Book) Add(symbol string, quantity int64, unitCost decimal.NullDecimal, name string) model.Position {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(symbol)
	if i < 0 {
		p := model.Position{
			Code:     symbol,
			Name:     name,
			Quantity: quantity,
			AvgPrice: unitCost,
			Color:    b.colorFor(symbol),
		}
		if p.Name == "" {
			p.Name = symbol
		}
		b.positions = append(b.positions, p)
		return p
	}

	p := &b.positions[i]
	p.AvgPrice = mergeCost(p.Quantity, p.AvgPrice, quantity, unitCost)
	p.Quantity += quantity
	if name != "" {
		p.Name = name
	}
	return *p
}

func mergeCost(oldQty int64, oldCost decimal.NullDecimal, addQty int64, newCost decimal.NullDecimal) decimal.NullDecimal {
	switch {
	case !newCost.Valid:
		return oldCost
	case !oldCost.Valid:
		return newCost
	default:
		return decimal.NewNullDecimal(weightedAvg(oldCost.Decimal, decimal.NewFromInt(oldQty), newCost.Decimal, decimal.NewFromInt(addQty)))
	}
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	total := existingQty.Add(newQty)
	if total.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(total)
}

// Remove deletes the position at index, the order of the rest is kept.
func (b *Book) Remove(index int) (model.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if index < 0 || index >= len(b.positions) {
		return model.Position{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(b.positions))
	}
	p := b.positions[index]
	b.positions = slices.Delete(b.positions, index, index+1)
	return p, nil
}

func (b *Book) RemoveSymbol(symbol string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(symbol)
	if i < 0 {
		return false
	}
	b.positions = slices.Delete(b.positions, i, i+1)
	return true
}

func (b *Book) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions = make([]model.Position, 0)
}

func (b *Book) Get(symbol string) (model.Position, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if i := b.indexOf(symbol); i >= 0 {
		return b.positions[i], true
	}
	return model.Position{}, false
}

func (b *Book) Positions() []model.Position {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.positions)
}

func (b *Book) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	symbols := make([]string, 0, len(b.positions))
	for _, p := range b.positions {
		symbols = append(symbols, p.Code)
	}
	return symbols
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.positions)
}

func (b *Book) indexOf(symbol string) int {
	return slices.IndexFunc(b.positions, func(p model.Position) bool {
		return p.Code == symbol
	})
}

// colorFor keeps the canonical color of known symbols. Others get a palette color picked
// from a hash of the symbol, moving forward to the first one not already in use.
func (b *Book) colorFor(symbol string) string {
	if info, ok := b.known[symbol]; ok && info.Color != "" {
		return info.Color
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	start := int(h.Sum32() % uint32(len(b.palette)))

	used := make(map[string]struct{}, len(b.positions))
	for _, p := range b.positions {
		used[p.Color] = struct{}{}
	}
	for i := range len(b.palette) {
		c := b.palette[(start+i)%len(b.palette)]
		if _, ok := used[c]; !ok {
			return c
		}
	}
	return b.palette[start]
}
