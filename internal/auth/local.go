package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/ayush/myflix/internal/common"
	"github.com/ayush/myflix/internal/httputil"
	"github.com/ayush/myflix/internal/metrics"
	"github.com/ayush/myflix/internal/models"
	"github.com/ayush/myflix/internal/validation"
)

// LocalStrategy verifies a username/password pair.
type LocalStrategy struct {
	users   CredentialStore
	hasher  Hasher
	log     logrus.FieldLogger
	metrics *metrics.Metrics

	// compared against when the user does not exist
	placeholderHash string
}

// fallbackPlaceholderHash is a valid bcrypt hash (cost 10) used if the
// configured hasher cannot produce one at startup.
const fallbackPlaceholderHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func NewLocalStrategy(users CredentialStore, hasher Hasher, log logrus.FieldLogger, m *metrics.Metrics) *LocalStrategy {
	s := &LocalStrategy{
		users:           users,
		hasher:          hasher,
		log:             log.WithField("strategy", "local"),
		metrics:         m,
		placeholderHash: fallbackPlaceholderHash,
	}
	if h, err := hasher.Hash("myflix-placeholder-password"); err == nil {
		s.placeholderHash = h
	} else {
		s.log.WithError(err).Warn("placeholder hash, using built-in fallback")
	}
	return s
}

func (s *LocalStrategy) Name() string { return "local" }

// Authenticate reads the credentials from the request and verifies them.
// Credentials already parsed by ParseCredentials are reused from the request
// context. Unreadable or incomplete bodies yield an error wrapping
// common.ErrValidation.
func (s *LocalStrategy) Authenticate(r *http.Request) (Outcome, error) {
	creds, err := ParseCredentials(r)
	if err != nil {
		return Outcome{}, err
	}
	return s.Verify(r.Context(), creds.Username, creds.Password)
}

// Verify looks the user up and checks the password against the stored hash.
func (s *LocalStrategy) Verify(ctx context.Context, username, password string) (Outcome, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		// burn the same hashing time as a real check
		s.hasher.Verify(password, s.placeholderHash)
		return s.reject(username, ReasonUserNotFound), nil
	}
	if err != nil {
		s.metrics.RecordAuth(s.Name(), outcomeError, "")
		return Outcome{}, fmt.Errorf("look up user %q: %w", username, err)
	}

	if !s.hasher.Verify(password, user.Password) {
		return s.reject(username, ReasonWrongPassword), nil
	}

	s.metrics.RecordAuth(s.Name(), outcomeAuthenticated, "")
	return authenticated(user), nil
}

func (s *LocalStrategy) reject(username string, reason Reason) Outcome {
	s.log.WithFields(logrus.Fields{"username": username, "reason": reason}).Info("login rejected")
	s.metrics.RecordAuth(s.Name(), outcomeRejected, string(reason))
	return rejected(reason)
}

type credentialsKey struct{}

// WithCredentials stores already-parsed credentials so a later
// ParseCredentials on the same request does not re-read the body.
func WithCredentials(ctx context.Context, creds models.LoginRequest) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// ParseCredentials reads {username, password} from a JSON or form body and
// checks both are present. Form keys may be capitalised; the lower-case key
// wins when both are sent.
func ParseCredentials(r *http.Request) (models.LoginRequest, error) {
	if creds, ok := r.Context().Value(credentialsKey{}).(models.LoginRequest); ok {
		return creds, nil
	}

	var creds models.LoginRequest
	if httputil.IsForm(r) {
		form := map[string]string{}
		if err := httputil.DecodeForm(r, func(key, value string) { form[key] = value }); err != nil {
			return creds, err
		}
		creds.Username = firstNonEmpty(form["username"], form["Username"])
		creds.Password = firstNonEmpty(form["password"], form["Password"])
	} else if err := httputil.DecodeJSON(r, &creds); err != nil {
		return creds, err
	}

	if err := validation.Struct(creds); err != nil {
		return creds, err
	}
	return creds, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
