package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRelayFailed means the submission was archived but could not be sent.
var ErrRelayFailed = errors.New("feedback relay failed")

type Service struct {
	archive *Archive
	relay   Relay
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(archive *Archive, relay Relay, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{archive: archive, relay: relay, logger: logger, now: time.Now}
}

// Submit validates s, archives it as pending, relays it and records the
// outcome. Validation failures return a *ValidationError before anything is
// stored.
func (svc *Service) Submit(ctx context.Context, s Submission) (Submission, error) {
	s.Normalize()
	if err := s.Validate(); err != nil {
		return Submission{}, err
	}

	s.ID = uuid.NewString()
	s.Status = StatusPending
	s.CreatedAt = svc.now().UTC()
	if err := svc.archive.Insert(ctx, s); err != nil {
		return Submission{}, err
	}

	log := svc.logger.With(zap.String("feedback_id", s.ID))
	if err := svc.relay.Relay(ctx, s); err != nil {
		log.Error("failed to relay feedback", zap.Error(err))
		s.Status = StatusFailed
		if uerr := svc.archive.SetStatus(ctx, s.ID, StatusFailed, err.Error()); uerr != nil {
			log.Error("failed to record relay failure", zap.Error(uerr))
		}
		return s, fmt.Errorf("%w: %v", ErrRelayFailed, err)
	}

	s.Status = StatusRelayed
	if err := svc.archive.SetStatus(ctx, s.ID, StatusRelayed, ""); err != nil {
		log.Warn("failed to record relay success", zap.Error(err))
	}
	log.Info("feedback relayed")
	return s, nil
}
