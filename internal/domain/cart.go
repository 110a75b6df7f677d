package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field names accepted by field-equality queries on the cart collection.
type Field string

const (
	FieldProductID Field = "productId"
	FieldTitle     Field = "title"
	FieldBuyURL    Field = "buyUrl"
)

// CartEntry is one persisted cart line. ID is assigned by the document store
// on creation and is empty while the create is in flight.
type CartEntry struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	ImageURL  string    `json:"imageUrl"`
	Title     string    `json:"title"`
	Price     string    `json:"price"`
	BuyURL    string    `json:"buyUrl"`
	AddedAt   time.Time `json:"addedAt"`
}

func NewCartEntry(item CatalogItem, now time.Time) CartEntry {
	return CartEntry{
		ProductID: item.DerivedID(),
		ImageURL:  item.Image,
		Title:     item.Name,
		Price:     item.Price,
		BuyURL:    item.BuyURL,
		AddedAt:   now,
	}
}

// Value returns the field used by field-equality queries.
func (e CartEntry) Value(f Field) (string, bool) {
	switch f {
	case FieldProductID:
		return e.ProductID, true
	case FieldTitle:
		return e.Title, true
	case FieldBuyURL:
		return e.BuyURL, true
	}
	return "", false
}

// Total sums the parseable prices of entries, rounded to two decimals.
func Total(entries []CartEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		if p, ok := ParsePrice(e.Price); ok {
			sum = sum.Add(p)
		}
	}
	return sum.Round(2)
}
