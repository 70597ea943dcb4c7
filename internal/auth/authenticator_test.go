package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roundreview/internal/capabilities"
	"roundreview/internal/domain"
	"roundreview/internal/domain/models"
	"roundreview/internal/repository/memory"
	"roundreview/internal/service/policy"
)

type staticFlags models.SystemFlags

func (f staticFlags) Flags(ctx context.Context) (models.SystemFlags, error) {
	return models.SystemFlags(f), nil
}

type authFixture struct {
	store *memory.Store
	key   *rsa.PrivateKey
	flags *staticFlags
	authn *Authenticator
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verifier := NewKeyfuncVerifier(func(*jwt.Token) (interface{}, error) { return &key.PublicKey, nil }, logger)

	caps, err := capabilities.NewRegistry()
	require.NoError(t, err)

	store := memory.NewStore()
	flags := &staticFlags{ObjectMaxUploadSizeMB: 10}
	authn := NewAuthenticator(store.Users(), verifier, policy.NewEvaluator(caps), flags, logger).(*Authenticator)
	return &authFixture{store: store, key: key, flags: flags, authn: authn}
}

func (f *authFixture) token(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub, ExpiresAt: jwt.NewNumericDate(exp)},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func request(header, value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	if header != "" {
		r.Header.Set(header, value)
	}
	return r
}

func TestAuthenticate_APIKey(t *testing.T) {
	f := newAuthFixture(t)
	key, hash := NewAPIKey()
	u := f.store.PutUser(models.User{Name: "alice", APIKeyHash: &hash})

	actor, err := f.authn.Authenticate(request(APIKeyHeader, key))
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.ID)

	_, err = f.authn.Authenticate(request(APIKeyHeader, "wrong"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_BearerToken(t *testing.T) {
	f := newAuthFixture(t)
	u := f.store.PutUser(models.User{Name: "alice"})

	actor, err := f.authn.Authenticate(request("Authorization", "Bearer "+f.token(t, u.ID, time.Now().Add(time.Hour))))
	require.NoError(t, err)
	assert.Equal(t, "alice", actor.Name)

	_, err = f.authn.Authenticate(request("Authorization", "Bearer "+f.token(t, u.ID, time.Now().Add(-time.Hour))))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.authn.Authenticate(request("Authorization", "Bearer "+f.token(t, "ghost", time.Now().Add(time.Hour))))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.authn.Authenticate(request("Authorization", "Token abc"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.authn.Authenticate(request("", ""))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthenticate_LoginRule(t *testing.T) {
	f := newAuthFixture(t)
	aliceKey, aliceHash := NewAPIKey()
	adminKey, adminHash := NewAPIKey()
	systemKey, systemHash := NewAPIKey()
	goneKey, goneHash := NewAPIKey()
	f.store.PutUser(models.User{Name: "alice", APIKeyHash: &aliceHash})
	f.store.PutUser(models.User{Name: "admin", IsAdmin: true, APIKeyHash: &adminHash})
	f.store.PutUser(models.User{Name: "system", IsSystem: true, APIKeyHash: &systemHash})
	f.store.PutUser(models.User{Name: "gone", Deleted: true, APIKeyHash: &goneHash})

	_, err := f.authn.Authenticate(request(APIKeyHeader, systemKey))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.authn.Authenticate(request(APIKeyHeader, goneKey))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	f.flags.UserLoginDisabled = true
	_, err = f.authn.Authenticate(request(APIKeyHeader, aliceKey))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.authn.Authenticate(request(APIKeyHeader, adminKey))
	assert.NoError(t, err)
}

func TestHashAPIKey_Stable(t *testing.T) {
	key, hash := NewAPIKey()
	assert.Equal(t, hash, HashAPIKey(key))
	assert.Len(t, hash, 64)
	assert.NotEqual(t, key, hash)
}
