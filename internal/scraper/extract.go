package scraper

import (
	"net/url"
	"strings"

	"github.com/fjod/shopnest/internal/domain"
)

const (
	containerSelector = ".sh-dgr__content"
	nameSelector      = ".tAxDx"
	priceSelector     = ".a8Pemb"
	linkSelector      = "a.shntl"
	imageSelector     = "div.ArOc1c img[role='presentation']"
	sourceSelector    = "div.aULzUe.IuHnof"

	redirectPrefix = "/url?q="
)

// node is a product container as seen by the extractor.
type node interface {
	Text(selector string) (string, bool)
	Attr(selector, name string) (string, bool)
}

func extractProduct(n node) domain.CatalogItem {
	item := domain.CatalogItem{
		Name:   "No name",
		Price:  "No price",
		Source: "No source",
	}
	if v, ok := n.Text(nameSelector); ok {
		item.Name = v
	}
	if v, ok := n.Text(priceSelector); ok {
		item.Price = v
	}
	if v, ok := n.Attr(linkSelector, "href"); ok && v != "" {
		item.BuyURL = unwrapBuyURL(v)
	}
	if v, ok := n.Attr(imageSelector, "src"); ok {
		item.Image = v
	}
	if v, ok := n.Text(sourceSelector); ok {
		item.Source = v
	}
	return item
}

// unwrapBuyURL turns "/url?q=<escaped>&..." redirect links into the target
// URL. Other links are returned unchanged.
func unwrapBuyURL(link string) string {
	if !strings.HasPrefix(link, redirectPrefix) {
		return link
	}
	target := strings.TrimPrefix(link, redirectPrefix)
	if i := strings.IndexByte(target, '&'); i >= 0 {
		target = target[:i]
	}
	if decoded, err := url.PathUnescape(target); err == nil {
		return decoded
	}
	return target
}

func searchURL(q string) string {
	return "https://www.google.com/search?tbm=shop&hl=en&psb=1&q=" + url.QueryEscape(q) + "&num=50"
}
