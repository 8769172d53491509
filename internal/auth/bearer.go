package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/metrics"
)

// TokenStrategy verifies bearer tokens minted by TokenIssuer and resolves
// them to a live user.
type TokenStrategy struct {
	secret  []byte
	users   CredentialStore
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewTokenStrategy(secret []byte, users CredentialStore, log logrus.FieldLogger, m *metrics.Metrics) *TokenStrategy {
	return &TokenStrategy{
		secret:  secret,
		users:   users,
		log:     log.WithField("strategy", "bearer"),
		metrics: m,
		now:     time.Now,
	}
}

func (s *TokenStrategy) Name() string { return "bearer" }

// Authenticate verifies the token in the Authorization header. A missing or
// non-Bearer header is a Malformed rejection, not an error.
func (s *TokenStrategy) Authenticate(r *http.Request) (Outcome, error) {
	raw, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return s.reject(ReasonMalformed, nil), nil
	}
	return s.Verify(r.Context(), raw)
}

// Verify checks the signature first, then expiry, then that the user still exists.
func (s *TokenStrategy) Verify(ctx context.Context, raw string) (Outcome, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return s.reject(ReasonBadSignature, err), nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return s.reject(ReasonExpired, err), nil
	default:
		return s.reject(ReasonMalformed, err), nil
	}
	if claims.UserID == "" {
		return s.reject(ReasonMalformed, errors.New("token has no uid claim")), nil
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, common.ErrNotFound) {
		return s.reject(ReasonUserNotFound, nil), nil
	}
	if err != nil {
		s.metrics.RecordAuth(s.Name(), outcomeError, "")
		return Outcome{}, fmt.Errorf("resolve token user %q: %w", claims.UserID, err)
	}

	s.metrics.RecordAuth(s.Name(), outcomeAuthenticated, "")
	return authenticated(user), nil
}

func (s *TokenStrategy) reject(reason Reason, cause error) Outcome {
	entry := s.log.WithField("reason", reason)
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Info("token rejected")
	s.metrics.RecordAuth(s.Name(), outcomeRejected, string(reason))
	return rejected(reason)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
// The scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
