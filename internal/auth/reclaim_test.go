package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReclaimToken_Roundtrip(t *testing.T) {
	issuer, err := NewReclaimTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	ownerID := uuid.New()
	token, err := issuer.Issue(ownerID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, ownerID, parsed)
}

func TestReclaimToken_WrongSecret(t *testing.T) {
	issuer, err := NewReclaimTokenIssuer("secret", time.Hour)
	require.NoError(t, err)
	other, err := NewReclaimTokenIssuer("another-secret", time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	parsed, err := other.Parse(token)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, parsed)
}

func TestReclaimToken_Expired(t *testing.T) {
	issuer := &ReclaimTokenIssuer{secret: []byte("secret"), ttl: -time.Minute}

	token, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = issuer.Parse(token)
	assert.Error(t, err)
}

func TestReclaimToken_Garbage(t *testing.T) {
	issuer, err := NewReclaimTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	_, err = issuer.Parse("not-a-jwt")
	assert.Error(t, err)
}

func TestNewReclaimTokenIssuer_EmptySecret(t *testing.T) {
	_, err := NewReclaimTokenIssuer("", time.Hour)
	assert.Error(t, err)
}

func TestNewReclaimTokenIssuer_DefaultTTL(t *testing.T) {
	issuer, err := NewReclaimTokenIssuer("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, issuer.ttl)
}
