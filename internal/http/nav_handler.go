package http

import (
	"net/http"

	"github.com/fjod/shopnest/internal/search"
)

const brand = "ShopNest"

type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type NavResponse struct {
	Brand       string    `json:"brand"`
	Links       []NavLink `json:"links"`
	Suggestions []string  `json:"suggestions"`
	SignedIn    bool      `json:"signedIn"`
}

// Nav describes the navigation shell. The cart link is only offered to
// signed-in callers.
func Nav(w http.ResponseWriter, r *http.Request) {
	signedIn := sessionFromRequest(r).Authenticated()
	links := []NavLink{
		{Label: "Home", Path: "/"},
		{Label: "Profile", Path: "/profile"},
		{Label: "Feedback", Path: "/feedback"},
	}
	if signedIn {
		links = append(links, NavLink{Label: "Cart", Path: "/cart"})
	}
	respondJSON(w, http.StatusOK, NavResponse{
		Brand:       brand,
		Links:       links,
		Suggestions: search.Suggestions,
		SignedIn:    signedIn,
	})
}

func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
