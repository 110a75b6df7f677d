package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotal(t *testing.T) {
	entries := []CartEntry{{Price: "$10.00"}, {Price: "$2.50"}}
	assert.Equal(t, "12.50", FormatAmount(Total(entries)))
}

func TestTotal_IgnoresUnparseablePrices(t *testing.T) {
	entries := []CartEntry{{Price: "$1,000.10"}, {Price: "No price"}, {Price: "€0.333"}}
	assert.Equal(t, "1000.43", FormatAmount(Total(entries)))
}

func TestTotal_Empty(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(Total(nil)))
}

func TestParsePrice(t *testing.T) {
	p, ok := ParsePrice("-$3.5")
	assert.True(t, ok)
	assert.Equal(t, "-3.5", p.String())

	_, ok = ParsePrice("free")
	assert.False(t, ok)

	_, ok = ParsePrice("1.2.3")
	assert.False(t, ok)
}

func TestNewCartEntry(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	item := CatalogItem{Name: "Desk Lamp", Price: "$19.99", Image: "https://img/1.png", BuyURL: "https://s/lamp?ref=1"}

	e := NewCartEntry(item, now)

	assert.Empty(t, e.ID)
	assert.Equal(t, "https://s/lamp", e.ProductID)
	assert.Equal(t, "Desk Lamp", e.Title)
	assert.Equal(t, "$19.99", e.Price)
	assert.Equal(t, "https://img/1.png", e.ImageURL)
	assert.Equal(t, now, e.AddedAt)

	v, ok := e.Value(FieldProductID)
	assert.True(t, ok)
	assert.Equal(t, "https://s/lamp", v)
	_, ok = e.Value(Field("qty"))
	assert.False(t, ok)
}
