package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/domain"
)

// InvalidateFunc drops whatever this instance holds for the user's cart.
type InvalidateFunc func(ctx context.Context, userID string)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Poller consumes cart events published by other storefront instances and
// invalidates the local copy of the affected cart.
type Poller struct {
	reader     messageReader
	origin     string
	invalidate InvalidateFunc
	logger     *zap.Logger
	backoff    time.Duration
}

// NewPoller joins a consumer group of its own so every instance sees every
// event.
func NewPoller(origin, topic string, invalidate InvalidateFunc, logger *zap.Logger, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "shopnest-" + origin,
		MaxBytes: 10e6, // 10MB
	})
	return newPoller(reader, origin, invalidate, logger)
}

func newPoller(reader messageReader, origin string, invalidate InvalidateFunc, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{reader: reader, origin: origin, invalidate: invalidate, logger: logger, backoff: time.Second}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			p.logger.Warn("error reading cart event", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.backoff):
			}
			continue
		}
		p.handle(ctx, m)
	}
}

func (p *Poller) handle(ctx context.Context, m kafka.Message) bool {
	var event domain.CartEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.logger.Warn("error parsing cart event", zap.Int64("offset", m.Offset), zap.Error(err))
		return false
	}
	if event.UserID == "" {
		p.logger.Warn("cart event without user_id", zap.Int64("offset", m.Offset))
		return false
	}
	if event.Origin == p.origin {
		return false
	}

	p.invalidate(ctx, event.UserID)
	p.logger.Debug("cart invalidated by remote event",
		zap.String("user_id", event.UserID),
		zap.String("origin", event.Origin),
		zap.String("action", string(event.Action)))
	return true
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}
