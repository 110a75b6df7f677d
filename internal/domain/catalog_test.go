package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDerivedID(t *testing.T) {
	tests := []struct {
		name string
		item CatalogItem
		want string
	}{
		{
			name: "explicit id wins",
			item: CatalogItem{ID: "sku-1", Name: "Phone", BuyURL: "https://shop.example/p?x=1"},
			want: "sku-1",
		},
		{
			name: "buy url without query string",
			item: CatalogItem{Name: "Phone", BuyURL: "https://shop.example/p/42?utm=abc&ref=x"},
			want: "https://shop.example/p/42",
		},
		{
			name: "buy url without query is kept whole",
			item: CatalogItem{Name: "Phone", BuyURL: "https://shop.example/p/42"},
			want: "https://shop.example/p/42",
		},
		{
			name: "name fallback collapses whitespace runs",
			item: CatalogItem{Name: "Sony  WH-1000XM5\tWireless Headphones"},
			want: "sony-wh-1000xm5-wireless-headphones",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.DerivedID())
		})
	}
}

func TestDerivedID_StableForSameItem(t *testing.T) {
	a := CatalogItem{Name: "Gaming Mouse", BuyURL: "https://x.example/m?session=1"}
	b := CatalogItem{Name: "Gaming Mouse", BuyURL: "https://x.example/m?session=1"}
	assert.Equal(t, a.DerivedID(), b.DerivedID())
}

func TestSortItems(t *testing.T) {
	items := []CatalogItem{{Name: "a", Price: "$20"}, {Name: "b", Price: "$5"}}

	asc := SortItems(items, SortLowToHigh)
	desc := SortItems(items, SortHighToLow)
	def := SortItems(items, SortDefault)

	if diff := cmp.Diff([]string{"$5", "$20"}, prices(asc)); diff != "" {
		t.Errorf("ascending mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"$20", "$5"}, prices(desc)); diff != "" {
		t.Errorf("descending mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"$20", "$5"}, prices(def)); diff != "" {
		t.Errorf("default mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "$20", items[0].Price, "input must not be reordered")
}

func TestSortItems_StableAndUnpricedLast(t *testing.T) {
	items := []CatalogItem{
		{Name: "x", Price: "No price"},
		{Name: "first", Price: "$10"},
		{Name: "y", Price: ""},
		{Name: "second", Price: "$10.00"},
		{Name: "pricey", Price: "$1,099.99"},
	}

	got := SortItems(items, SortLowToHigh)
	want := []string{"first", "second", "pricey", "x", "y"}
	if diff := cmp.Diff(want, names(got)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSortOrder(t *testing.T) {
	o, err := ParseSortOrder("")
	assert.NoError(t, err)
	assert.Equal(t, SortDefault, o)

	o, err = ParseSortOrder("highToLow")
	assert.NoError(t, err)
	assert.Equal(t, SortHighToLow, o)

	_, err = ParseSortOrder("random")
	assert.Error(t, err)
}

func prices(items []CatalogItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Price
	}
	return out
}

func names(items []CatalogItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
