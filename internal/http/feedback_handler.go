package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/feedback"
	"github.com/fjod/shopnest/pkg/logger"
)

type feedbackService interface {
	Submit(ctx context.Context, s feedback.Submission) (feedback.Submission, error)
}

type FeedbackHandler struct {
	feedback feedbackService
	timeout  time.Duration
	maxBody  int64
	logger   *zap.Logger
}

func NewFeedbackHandler(svc feedbackService, timeout time.Duration, maxBody int64, l *zap.Logger) *FeedbackHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &FeedbackHandler{feedback: svc, timeout: timeout, maxBody: maxBody, logger: l}
}

type FeedbackRequestDTO struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req FeedbackRequestDTO
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	session := sessionFromRequest(r)
	email := req.Email
	if email == "" {
		email = session.Email
	}

	sub, err := h.feedback.Submit(ctx, feedback.Submission{
		UserID:  session.UID,
		Email:   email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		if respondValidation(w, err) {
			return
		}
		if errors.Is(err, feedback.ErrRelayFailed) {
			respondError(w, http.StatusBadGateway, "relay_failed", "feedback was saved but could not be delivered")
			return
		}
		logger.WithContext(ctx, h.logger).Error("feedback submission failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	respondJSON(w, http.StatusAccepted, sub)
}
