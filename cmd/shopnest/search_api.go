package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/catalog"
	h "github.com/fjod/shopnest/internal/http"
	"github.com/fjod/shopnest/internal/scraper"
)

const defaultRedisAddr = "localhost:6379"

func newSearchAPICmd(a *app) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "search-api",
		Short: "Run the product search endpoint backed by the scraper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				a.cfg.SearchAPIPort = port
			}
			return a.searchAPI(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides SEARCH_API_PORT)")
	return cmd
}

func (a *app) searchAPI(ctx context.Context) error {
	cfg := a.cfg
	addr := cfg.RedisAddr
	if addr == "" {
		addr = defaultRedisAddr
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}

	scfg := scraper.DefaultConfig()
	scfg.Bin = cfg.ChromeBin
	scfg.Headless = cfg.ScraperHeadless
	scfg.PoolSize = cfg.ScraperPoolSize
	rs, err := scraper.NewRodScraper(scfg, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := rs.Close(); err != nil {
			a.log.Warn("failed to close browser", zap.Error(err))
		}
	}()

	svc := catalog.NewService(catalog.NewRedisResultCache(redisClient), rs, a.log)
	router := h.NewSearchAPIRouter(h.NewProductsHandler(svc, a.log), a.log, cfg.RequestTimeout)
	return a.runServer("search-api", newHTTPServer(cfg.SearchAPIPort, router))
}
