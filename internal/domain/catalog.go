package domain

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CatalogItem is a product returned by the search endpoint. The endpoint does
// not guarantee an identifier, see DerivedID.
type CatalogItem struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	Image  string `json:"image"`
	BuyURL string `json:"buy_url"`
	Source string `json:"source"`
}

// DerivedID returns the identity used for cart membership:
// the explicit id, else the buy URL without its query string, else the
// lower-cased name with whitespace runs collapsed to "-".
func (i CatalogItem) DerivedID() string {
	if i.ID != "" {
		return i.ID
	}
	if i.BuyURL != "" {
		if idx := strings.IndexByte(i.BuyURL, '?'); idx >= 0 {
			return i.BuyURL[:idx]
		}
		return i.BuyURL
	}
	return whitespaceRun.ReplaceAllString(strings.ToLower(i.Name), "-")
}
