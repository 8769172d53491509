package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/httputil"
	"github.com/ayush/myflix/internal/metrics"
	"github.com/ayush/myflix/internal/models"
	"github.com/ayush/myflix/internal/validation"
)

// TooManyAttemptsMessage is sent with 429 when the login limiter trips.
const TooManyAttemptsMessage = "too many failed login attempts, try again later"

// LoginLimiter throttles repeated failed logins per username.
type LoginLimiter interface {
	Blocked(ctx context.Context, username string) (bool, error)
	RecordFailure(ctx context.Context, username string) error
	Reset(ctx context.Context, username string) error
}

// LoginResponse is the body of a successful POST /login.
type LoginResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Handler serves POST /login.
type Handler struct {
	local   Strategy
	issuer  *TokenIssuer
	limiter LoginLimiter
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewHandler wires the login flow around a credential strategy, normally a
// *LocalStrategy. limiter may be nil to disable throttling.
func NewHandler(local Strategy, issuer *TokenIssuer, limiter LoginLimiter, log logrus.FieldLogger, m *metrics.Metrics) *Handler {
	return &Handler{local: local, issuer: issuer, limiter: limiter, log: log, metrics: m}
}

// Login verifies the submitted credentials and returns the user with a fresh token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	creds, err := ParseCredentials(r)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			httputil.WriteBadRequest(w, validation.Message(err))
			return
		}
		h.log.WithError(err).Error("read login request")
		httputil.WriteInternalError(w)
		return
	}
	log := h.log.WithField("username", creds.Username)

	if h.limiter != nil {
		blocked, err := h.limiter.Blocked(ctx, creds.Username)
		if err != nil {
			log.WithError(err).Warn("login limiter unavailable, allowing attempt")
		}
		if blocked {
			log.Info("login throttled")
			httputil.WriteMessage(w, http.StatusTooManyRequests, TooManyAttemptsMessage)
			return
		}
	}

	outcome, err := h.local.Authenticate(r.WithContext(WithCredentials(ctx, creds)))
	if err != nil {
		log.WithError(err).Error("verify credentials")
		httputil.WriteInternalError(w)
		return
	}
	if !outcome.Authenticated() {
		if h.limiter != nil {
			if err := h.limiter.RecordFailure(ctx, creds.Username); err != nil {
				log.WithError(err).Warn("record failed login")
			}
		}
		httputil.WriteBadRequest(w, GenericFailureMessage)
		return
	}

	token, err := h.issuer.Issue(outcome.User)
	if err != nil {
		log.WithError(err).Error("issue token")
		httputil.WriteInternalError(w)
		return
	}
	h.metrics.RecordTokenIssued()

	if h.limiter != nil {
		if err := h.limiter.Reset(ctx, creds.Username); err != nil {
			log.WithError(err).Warn("reset login limiter")
		}
	}

	log.Info("login succeeded")
	httputil.WriteJSON(w, http.StatusOK, LoginResponse{User: outcome.User, Token: token.Value})
}
