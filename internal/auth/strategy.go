// Package auth authenticates myFlix users.
//
// Two strategies share the Strategy interface: LocalStrategy checks a
// username/password pair against the credential store, TokenStrategy checks
// a bearer token minted by TokenIssuer. Both report an Outcome; an error is
// returned only when the check itself could not be carried out (store
// outage, bad configuration), never for bad credentials.
package auth

import (
	"context"
	"net/http"

	"github.com/ayush/myflix/internal/models"
)

// GenericFailureMessage is the only text clients see for any credential or
// token rejection, so responses never reveal which check failed.
const GenericFailureMessage = "invalid credentials"

// CredentialStore is the read side of the user store that authentication needs.
// Both lookups return common.ErrNotFound when no such user exists.
type CredentialStore interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Reason says why a strategy rejected a request. It is for logs, metrics and
// tests only.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonUserNotFound  Reason = "user_not_found"
	ReasonWrongPassword Reason = "wrong_password"
	ReasonMalformed     Reason = "malformed"
	ReasonBadSignature  Reason = "bad_signature"
	ReasonExpired       Reason = "expired"
)

// Outcome is the result of a completed check: either an authenticated user or
// a rejection reason.
type Outcome struct {
	User   *models.User
	Reason Reason
}

func authenticated(u *models.User) Outcome { return Outcome{User: u} }

func rejected(r Reason) Outcome { return Outcome{Reason: r} }

// Authenticated reports whether the check succeeded.
func (o Outcome) Authenticated() bool { return o.User != nil }

// Strategy authenticates an inbound request.
type Strategy interface {
	Name() string
	Authenticate(r *http.Request) (Outcome, error)
}

// outcome labels for metrics
const (
	outcomeAuthenticated = "authenticated"
	outcomeRejected      = "rejected"
	outcomeError         = "error"
)
