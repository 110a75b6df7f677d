package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/shopnest/internal/account"
	"github.com/fjod/shopnest/internal/domain"
	"github.com/fjod/shopnest/internal/identity"
	"github.com/fjod/shopnest/pkg/logger"
)

type accountService interface {
	Register(ctx context.Context, req account.RegisterRequest) (account.Registration, error)
	SignIn(ctx context.Context, email, password string) (string, *domain.User, error)
	SignOut(ctx context.Context, session identity.Session) error
	Profile(ctx context.Context, session identity.Session) (*domain.User, error)
	UpdateProfile(ctx context.Context, session identity.Session, upd account.ProfileUpdate) (*domain.User, error)
}

type AccountHandler struct {
	accounts accountService
	timeout  time.Duration
	maxBody  int64
	logger   *zap.Logger
}

func NewAccountHandler(accounts accountService, timeout time.Duration, maxBody int64, l *zap.Logger) *AccountHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &AccountHandler{accounts: accounts, timeout: timeout, maxBody: maxBody, logger: l}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req account.RegisterRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	reg, err := h.accounts.Register(ctx, req)
	if err != nil {
		if respondValidation(w, err) {
			return
		}
		var rerr *account.RegistrationError
		if errors.As(err, &rerr) {
			respondError(w, registrationStatus(rerr), "registration_failed", rerr.Message)
			return
		}
		logger.WithContext(ctx, h.logger).Error("registration failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "Registration failed. Please try again.")
		return
	}
	respondJSON(w, http.StatusCreated, reg)
}

func registrationStatus(err *account.RegistrationError) int {
	switch {
	case errors.Is(err, identity.ErrEmailInUse):
		return http.StatusConflict
	case errors.Is(err, identity.ErrInvalidEmail), errors.Is(err, identity.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, identity.ErrPermissionDenied):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}

	token, user, err := h.accounts.SignIn(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, account.ErrSignInUnsupported):
		respondError(w, http.StatusNotFound, "not_found", "sign-in is handled by the identity provider")
		return
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	case err != nil:
		logger.WithContext(ctx, h.logger).Error("sign-in failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "sign-in failed")
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (h *AccountHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.accounts.SignOut(ctx, sessionFromRequest(r)); err != nil {
		if errors.Is(err, identity.ErrUnauthenticated) {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
			return
		}
		logger.WithContext(ctx, h.logger).Error("sign-out failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "signout_failed", "sign-out failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := h.accounts.Profile(ctx, sessionFromRequest(r))
	if err != nil {
		h.profileError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var upd account.ProfileUpdate
	if !decodeJSON(w, r, h.maxBody, &upd) {
		return
	}

	user, err := h.accounts.UpdateProfile(ctx, sessionFromRequest(r), upd)
	if err != nil {
		h.profileError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AccountHandler) profileError(ctx context.Context, w http.ResponseWriter, err error) {
	if respondValidation(w, err) {
		return
	}
	if errors.Is(err, identity.ErrUnauthenticated) {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	logger.WithContext(ctx, h.logger).Error("profile request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
