// Package scraper collects catalog items from the shopping results page with
// a headless Chromium driven by go-rod.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/domain"
)

type Config struct {
	Bin               string
	Headless          bool
	PoolSize          int
	NavigationTimeout time.Duration
	WaitTimeout       time.Duration
	Attempts          int
	RetryPause        time.Duration
}

func DefaultConfig() Config {
	return Config{
		Headless:          true,
		PoolSize:          3,
		NavigationTimeout: 15 * time.Second,
		WaitTimeout:       8 * time.Second,
		Attempts:          2,
		RetryPause:        time.Second,
	}
}

type RodScraper struct {
	cfg      Config
	launcher *launcher.Launcher
	browser  *rod.Browser
	pool     rod.Pool[rod.Page]
	logger   *zap.Logger
}

func NewRodScraper(cfg Config, logger *zap.Logger) (*RodScraper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 3
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("disable-notifications")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	logger.Info("headless browser started", zap.Int("pool_size", cfg.PoolSize))
	return &RodScraper{
		cfg:      cfg,
		launcher: l,
		browser:  browser,
		pool:     rod.NewPagePool(cfg.PoolSize),
		logger:   logger,
	}, nil
}

// Scrape returns every product on the results page for q. Failed attempts
// are retried after a short pause.
func (s *RodScraper) Scrape(ctx context.Context, q string) ([]domain.CatalogItem, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.Attempts; attempt++ {
		items, err := s.scrapeOnce(ctx, q)
		if err == nil {
			return items, nil
		}
		lastErr = err
		s.logger.Error("scrape attempt failed",
			zap.String("query", q),
			zap.Int("attempt", attempt),
			zap.Int("attempts", s.cfg.Attempts),
			zap.Error(err),
		)
		if attempt == s.cfg.Attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.RetryPause):
		}
	}
	return nil, fmt.Errorf("all %d scrape attempts failed: %w", s.cfg.Attempts, lastErr)
}

func (s *RodScraper) scrapeOnce(ctx context.Context, q string) ([]domain.CatalogItem, error) {
	page, err := s.pool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer s.pool.Put(page)

	p := page.Context(ctx)
	if err := p.Timeout(s.cfg.NavigationTimeout).Navigate(searchURL(q)); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}
	if _, err := p.Timeout(s.cfg.WaitTimeout).Element(containerSelector); err != nil {
		return nil, fmt.Errorf("wait for results: %w", err)
	}

	els, err := p.Elements(containerSelector)
	if err != nil {
		return nil, fmt.Errorf("find results: %w", err)
	}

	items := make([]domain.CatalogItem, 0, len(els))
	for _, el := range els {
		items = append(items, extractProduct(rodNode{el: el}))
	}
	return items, nil
}

func (s *RodScraper) Close() error {
	s.pool.Cleanup(func(p *rod.Page) { _ = p.Close() })
	err := s.browser.Close()
	s.launcher.Cleanup()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

type rodNode struct {
	el *rod.Element
}

func (n rodNode) Text(selector string) (string, bool) {
	found, el, err := n.el.Has(selector)
	if err != nil || !found {
		return "", false
	}
	text, err := el.Text()
	if err != nil {
		return "", false
	}
	return text, true
}

func (n rodNode) Attr(selector, name string) (string, bool) {
	found, el, err := n.el.Has(selector)
	if err != nil || !found {
		return "", false
	}
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}
