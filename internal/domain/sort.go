package domain

import (
	"fmt"
	"sort"
)

type SortOrder string

const (
	SortDefault   SortOrder = "default"
	SortLowToHigh SortOrder = "lowToHigh"
	SortHighToLow SortOrder = "highToLow"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case "", SortDefault:
		return SortDefault, nil
	case SortLowToHigh, SortHighToLow:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// SortItems returns a re-ordered copy of items. The sort is stable; items
// whose price cannot be parsed keep their relative order after priced ones.
// SortDefault returns the input order unchanged.
func SortItems(items []CatalogItem, order SortOrder) []CatalogItem {
	out := make([]CatalogItem, len(items))
	copy(out, items)
	if order != SortLowToHigh && order != SortHighToLow {
		return out
	}

	type keyed struct {
		item  CatalogItem
		price float64
		ok    bool
	}
	ks := make([]keyed, len(out))
	for i, it := range out {
		p, ok := ParsePrice(it.Price)
		f, _ := p.Float64()
		ks[i] = keyed{item: it, price: f, ok: ok}
	}

	sort.SliceStable(ks, func(a, b int) bool {
		if ks[a].ok != ks[b].ok {
			return ks[a].ok
		}
		if !ks[a].ok {
			return false
		}
		if order == SortLowToHigh {
			return ks[a].price < ks[b].price
		}
		return ks[a].price > ks[b].price
	})

	for i := range ks {
		out[i] = ks[i].item
	}
	return out
}
