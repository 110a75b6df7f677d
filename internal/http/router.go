package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/identity"
)

// StorefrontDeps are the handlers and collaborators behind the storefront API.
type StorefrontDeps struct {
	Verifier       identity.Verifier
	Cart           *CartHandler
	Search         *SearchHandler
	Account        *AccountHandler
	Feedback       *FeedbackHandler
	AllowedOrigins []string
	RequestTimeout time.Duration
	Logger         *zap.Logger
}

func NewStorefrontRouter(d StorefrontDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", clientSessionHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Timeout(d.RequestTimeout))

	r.Get("/health", Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(OptionalAuth(d.Verifier))
			r.Get("/nav", Nav)
			r.Get("/suggestions", d.Search.Suggestions)
			r.Get("/search", d.Search.Search)
			r.Post("/feedback", d.Feedback.Submit)
			r.Post("/auth/register", d.Account.Register)
			r.Post("/auth/login", d.Account.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(d.Verifier))
			r.Post("/auth/signout", d.Account.SignOut)
			r.Get("/profile", d.Account.GetProfile)
			r.Patch("/profile", d.Account.UpdateProfile)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", d.Cart.GetCart)
				r.Post("/toggle", d.Cart.Toggle)
				r.Delete("/items/{docID}", d.Cart.RemoveItem)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}

func NewSearchAPIRouter(products *ProductsHandler, l *zap.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(l))
	r.Use(cors.AllowAll().Handler)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", Health)
	r.Get("/api/products", products.List)
	r.Get("/api/products/", products.List)

	return otelhttp.NewHandler(r, "search-api")
}
