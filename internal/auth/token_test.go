package auth

import (
	"errors"
	"testing"
	"time"

	"classroom-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(domain.Identity{Username: "alice", Role: domain.RoleTeacher})
	require.NoError(t, err)

	identity, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{Username: "alice", Role: domain.RoleTeacher}, identity)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	base := time.Now()
	issuer.now = func() time.Time { return base }
	token, err := issuer.Issue(domain.Identity{Username: "bob", Role: domain.RoleStudent})
	require.NoError(t, err)

	issuer.now = func() time.Time { return base.Add(2 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestVerifyRejectsForeignSecretAndAlgorithm(t *testing.T) {
	other := NewTokenIssuer("other", time.Hour)
	token, err := other.Issue(domain.Identity{Username: "bob", Role: domain.RoleStudent})
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "bob", Role: domain.RoleTeacher}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewTokenIssuer("secret", time.Hour).Verify(unsigned)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue(domain.Identity{Username: "mallory", Role: "admin"})
	require.NoError(t, err)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPasswordHasher(t *testing.T) {
	hasher := NewPasswordHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("hunter2")
	require.NoError(t, err)

	ok, err := hasher.Compare(hash, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = hasher.Compare(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}
