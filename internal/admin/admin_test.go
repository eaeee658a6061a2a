package admin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"
)

func TestGuardDisabledWhenUnconfigured(t *testing.T) {
	g := NewGuard("")
	assert.False(t, g.Enabled())
	assert.False(t, g.Validate("anything"))
	assert.False(t, g.ValidateBearer("Bearer anything"))

	_, err := g.Login("anything")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGuardPlainSecret(t *testing.T) {
	g := NewGuard("dev-secret")
	assert.True(t, g.Enabled())
	assert.True(t, g.Validate("dev-secret"))
	assert.False(t, g.Validate("wrong"))
	assert.False(t, g.Validate(""))
}

func TestGuardBcryptSecret(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	g := NewGuard(string(hash))
	assert.True(t, g.Validate("hunter2"))
	assert.False(t, g.Validate("hunter3"))
	assert.False(t, g.Validate(string(hash)), "the hash itself is not the secret")
}

func TestGuardBearerParsing(t *testing.T) {
	g := NewGuard("s3cret")
	assert.True(t, g.ValidateBearer("Bearer s3cret"))
	assert.True(t, g.ValidateBearer("Bearer  s3cret"))
	assert.False(t, g.ValidateBearer("s3cret"))
	assert.False(t, g.ValidateBearer("Basic s3cret"))
	assert.False(t, g.ValidateBearer(""))
}

func TestGuardLoginEchoesToken(t *testing.T) {
	g := NewGuard("s3cret")

	token, err := g.Login("s3cret")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", token)
	assert.True(t, g.ValidateBearer("Bearer "+token))

	_, err = g.Login("wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
