package catalog

import (
	"errors"
	"fmt"
	"math"
)

// DefaultPremiumThreshold is the rating at or above which an item is auctioned
// in the premium tier.
const DefaultPremiumThreshold = 9.0

var (
	// ErrEmptyCatalog is returned when a source yields no usable rows
	ErrEmptyCatalog = errors.New("catalog is empty")
	// ErrInvalidItem is returned when a row cannot be auctioned as given
	ErrInvalidItem = errors.New("invalid catalog item")
)

// Validate rejects items with a negative or non-finite base price or rating,
// and duplicate ids.
func Validate(items []Item) error {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		switch {
		case math.IsNaN(it.BasePrice) || math.IsInf(it.BasePrice, 0) || it.BasePrice < 0:
			return fmt.Errorf("%w: %q has base price %v", ErrInvalidItem, it.Name, it.BasePrice)
		case math.IsNaN(it.Rating) || math.IsInf(it.Rating, 0) || it.Rating < 0:
			return fmt.Errorf("%w: %q has rating %v", ErrInvalidItem, it.Name, it.Rating)
		case seen[it.ID]:
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidItem, it.ID)
		}
		seen[it.ID] = true
	}
	return nil
}

// Catalog is the immutable, ordered list of auctionable items. It is built
// once at startup and shared read-only by every room.
type Catalog struct {
	items    []Item
	sequence []Item
}

// New assigns each item its auction tier and freezes the list. Items with a
// rating at or above premiumThreshold land in TierPremium.
func New(items []Item, premiumThreshold float64) *Catalog {
	frozen := make([]Item, len(items))
	copy(frozen, items)

	premium := make([]Item, 0, len(frozen))
	standard := make([]Item, 0, len(frozen))
	for i := range frozen {
		if frozen[i].Rating >= premiumThreshold {
			frozen[i].Tier = TierPremium
			premium = append(premium, frozen[i])
		} else {
			frozen[i].Tier = TierStandard
			standard = append(standard, frozen[i])
		}
	}

	return &Catalog{
		items:    frozen,
		sequence: append(premium, standard...),
	}
}

// Items returns the catalog in source order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Sequence returns the auction order: premium tier first, then standard,
// source order preserved within each tier.
func (c *Catalog) Sequence() []Item {
	out := make([]Item, len(c.sequence))
	copy(out, c.sequence)
	return out
}

// Len reports the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}
