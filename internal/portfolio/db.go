package portfolio

import (
	"context"
	"fmt"

	"github.com/STTM-NSU/financeel/internal/kv"
	"github.com/STTM-NSU/financeel/internal/model"
)

// Load replaces the book with the persisted one. Positions stored with a non-positive
// quantity are dropped and repeated symbols are merged, so the book invariants hold
// whatever was written by older clients.
func (b *Book) Load(ctx context.Context) error {
	var stored []model.Position
	if _, err := kv.GetJSON(ctx, b.store, kv.PortfolioKey, &stored); err != nil {
		return fmt.Errorf("%w: can't load portfolio", err)
	}

	b.Clear()
	for _, p := range stored {
		if p.Code == "" || p.Quantity <= 0 {
			continue
		}
		b.restore(p)
	}
	return nil
}

func (b *Book) restore(p model.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexOf(p.Code); i >= 0 {
		cur := &b.positions[i]
		cur.AvgPrice = mergeCost(cur.Quantity, cur.AvgPrice, p.Quantity, p.AvgPrice)
		cur.Quantity += p.Quantity
		return
	}
	if p.Color == "" {
		p.Color = b.colorFor(p.Code)
	}
	if p.Name == "" {
		p.Name = p.Code
	}
	b.positions = append(b.positions, p)
}

// Save writes the book. The snapshot is taken under saveMu so the last write always carries the latest state.
func (b *Book) Save(ctx context.Context) error {
	b.saveMu.Lock()
	defer b.saveMu.Unlock()

	if err := kv.SetJSON(ctx, b.store, kv.PortfolioKey, b.Positions()); err != nil {
		return fmt.Errorf("%w: can't save portfolio", err)
	}
	return nil
}
