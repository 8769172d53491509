package auth

import (
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/myflix/internal/metrics"
	"github.com/ayush/myflix/internal/models"
	"github.com/ayush/myflix/internal/store/memstore"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// countingHasher records how many verifications ran.
type countingHasher struct {
	Hasher
	verifies atomic.Int32
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	h.verifies.Add(1)
	return h.Hasher.Verify(plaintext, hash)
}

func newTestHasher(t *testing.T) *countingHasher {
	t.Helper()
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return &countingHasher{Hasher: h}
}

// seedUser registers username/password in s and returns the stored record.
func seedUser(t *testing.T, s *memstore.Store, h Hasher, username, password string) *models.User {
	t.Helper()
	hash, err := h.Hash(password)
	require.NoError(t, err)
	u, err := s.CreateUser(t.Context(), &models.User{Username: username, Password: hash})
	require.NoError(t, err)
	return u
}

type testEnv struct {
	store   *memstore.Store
	hasher  *countingHasher
	metrics *metrics.Metrics
	hook    *test.Hook
	local   *LocalStrategy
	bearer  *TokenStrategy
	issuer  *TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, hook := test.NewNullLogger()
	s := memstore.New()
	h := newTestHasher(t)
	m := metrics.New()

	issuer, err := NewTokenIssuer(testSecret, DefaultTokenTTL)
	require.NoError(t, err)

	return &testEnv{
		store:   s,
		hasher:  h,
		metrics: m,
		hook:    hook,
		local:   NewLocalStrategy(s, h, log, m),
		bearer:  NewTokenStrategy(testSecret, s, log, m),
		issuer:  issuer,
	}
}
