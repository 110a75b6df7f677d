package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/account"
	"github.com/fjod/shopnest/internal/cache"
	"github.com/fjod/shopnest/internal/config"
	"github.com/fjod/shopnest/internal/feedback"
	h "github.com/fjod/shopnest/internal/http"
	"github.com/fjod/shopnest/internal/identity"
	"github.com/fjod/shopnest/internal/poller"
	"github.com/fjod/shopnest/internal/publisher"
	"github.com/fjod/shopnest/internal/repository"
	"github.com/fjod/shopnest/internal/search"
	"github.com/fjod/shopnest/internal/service"
)

func newServeCmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				a.cfg.HTTPPort = port
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides HTTP_PORT)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	instanceID := uuid.NewString()
	log := a.log.With(zap.String("instance_id", instanceID))

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn("failed to close store", zap.Error(err))
		}
	}()
	log.Info("store ready", zap.String("backend", cfg.StoreBackend))

	var carts repository.CartRepository = store
	var cached *cache.CachedRepository
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		cached = cache.NewCachedRepository(store, cache.NewRedisCache(redisClient), log)
		carts = cached
		log.Info("cart cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	provider, err := openIdentity(ctx, cfg, store)
	if err != nil {
		return err
	}

	var events service.EventPublisher = publisher.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub := publisher.NewKafkaPublisher(instanceID, cfg.CartEventsTopic, log, cfg.KafkaBrokers...)
		defer pub.Close()
		events = pub
	}

	hub := identity.NewHub()
	registry := service.NewRegistry(carts, events, hub, log)
	defer registry.Close()

	if len(cfg.KafkaBrokers) > 0 {
		invalidate := func(_ context.Context, uid string) {
			if cached != nil {
				cached.Invalidate(uid)
			}
			registry.Invalidate(uid)
		}
		p := poller.NewPoller(instanceID, cfg.CartEventsTopic, invalidate, log, cfg.KafkaBrokers...)
		defer p.Close()
		pollCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go p.Run(pollCtx)
		log.Info("cart events enabled", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	searchClient, err := search.NewClient(cfg.SearchAPIURL, cfg.RequestTimeout, log)
	if err != nil {
		return err
	}

	archive, err := feedback.OpenArchive(cfg.FeedbackDBPath)
	if err != nil {
		return err
	}
	defer archive.Close()
	if err := archive.Migrate(); err != nil {
		return err
	}
	if cfg.SendGridAPIKey == "" {
		log.Warn("SENDGRID_API_KEY is empty; feedback will be archived as failed")
	}
	relay := feedback.NewSendGridRelay(cfg.SendGridAPIKey, cfg.FeedbackFrom, cfg.FeedbackTo)

	router := h.NewStorefrontRouter(h.StorefrontDeps{
		Verifier:       provider,
		Cart:           h.NewCartHandler(registry, cfg.RequestTimeout, cfg.MaxRequestBodySize, log),
		Search:         h.NewSearchHandler(search.NewFeeds(searchClient, 0, log), registry, cfg.RequestTimeout, log),
		Account:        h.NewAccountHandler(account.NewService(provider, store, hub, log), cfg.RequestTimeout, cfg.MaxRequestBodySize, log),
		Feedback:       h.NewFeedbackHandler(feedback.NewService(archive, relay, log), cfg.RequestTimeout, cfg.MaxRequestBodySize, log),
		AllowedOrigins: cfg.CORSAllowOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	a.log = log
	return a.runServer("storefront", newHTTPServer(cfg.HTTPPort, router))
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoRepository(db), nil
	case config.StoreMemory:
		return repository.NewMemoryRepository(), nil
	default:
		client, err := repository.ConnectFirestore(ctx, cfg.FirebaseProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, err
		}
		return repository.NewFirestoreRepository(client), nil
	}
}

func openIdentity(ctx context.Context, cfg *config.Config, users repository.UserRepository) (identity.Provider, error) {
	if cfg.IdentityProvider == config.IdentityLocal {
		return identity.NewLocalProvider(users, cfg.JWTSecret, cfg.JWTExpiry)
	}
	client, err := identity.NewFirebaseAuthClient(ctx, cfg.FirebaseProjectID, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return identity.NewFirebaseProvider(client), nil
}
