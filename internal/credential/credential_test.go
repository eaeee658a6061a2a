package credential

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/scrypt"
)

func TestHashVerifyRoundtrip(t *testing.T) {
	record, err := Hash("secret123")
	require.NoError(t, err)

	assert.True(t, Verify(record, "secret123"))
	assert.False(t, Verify(record, "secret124"))
	assert.False(t, Verify(record, ""))
}

func TestHashUsesFreshSalt(t *testing.T) {
	a, err := Hash("same secret")
	require.NoError(t, err)
	b, err := Hash("same secret")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two records for the same secret must differ")
	assert.True(t, Verify(a, "same secret"))
	assert.True(t, Verify(b, "same secret"))
}

func TestRecordIsSelfDescribing(t *testing.T) {
	rec, err := Hash("pw")
	require.NoError(t, err)

	data, err := base64.StdEncoding.DecodeString(rec)
	require.NoError(t, err)

	var parsed record
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.NotEmpty(t, parsed.Salt)
	assert.NotEmpty(t, parsed.Hash)
	assert.Equal(t, scryptN, parsed.Params.N)
	assert.Equal(t, scryptR, parsed.Params.R)
	assert.Equal(t, scryptP, parsed.Params.P)
	assert.Equal(t, scryptKeyLen, parsed.Params.KeyLen)
}

// A record written with different cost parameters must verify with the
// parameters it carries, not the current defaults.
func TestVerifyUsesEmbeddedParams(t *testing.T) {
	salt := []byte("0123456789abcdef")
	key, err := scrypt.Key([]byte("pw"), salt, 1024, 4, 2, 32)
	require.NoError(t, err)

	data, err := json.Marshal(record{
		Salt:   base64.StdEncoding.EncodeToString(salt),
		Hash:   base64.StdEncoding.EncodeToString(key),
		Params: params{N: 1024, R: 4, P: 2, KeyLen: 32},
	})
	require.NoError(t, err)
	rec := base64.StdEncoding.EncodeToString(data)

	assert.True(t, Verify(rec, "pw"))
	assert.False(t, Verify(rec, "wrong"))
}

func TestLegacyPlaintextFallback(t *testing.T) {
	assert.True(t, Verify("hunter2", "hunter2"))
	assert.False(t, Verify("hunter2", "hunter2x"))
	assert.False(t, Verify("hunter2", ""))
}

// Strings that happen to decode as base64 or parse as JSON but are not
// structured records still fall back to plaintext comparison.
func TestLegacyFallbackNearMisses(t *testing.T) {
	// base64("{}") — valid JSON, no salt or hash.
	assert.True(t, Verify("e30=", "e30="))
	assert.False(t, Verify("e30=", "{}"))

	// Valid base64, not JSON.
	plain := base64.StdEncoding.EncodeToString([]byte("not json"))
	assert.True(t, Verify(plain, plain))
}

func TestCorruptRecordIsJustWrongSecret(t *testing.T) {
	rec, err := Hash("pw")
	require.NoError(t, err)

	// Truncation breaks the base64 framing; must degrade to a failed
	// match, never an error or panic.
	assert.False(t, Verify(rec[:len(rec)/2], "pw"))

	// Structured record with an unusable salt.
	data, err := json.Marshal(record{
		Salt:   "!!! not base64 !!!",
		Hash:   "AAAA",
		Params: params{N: 1024, R: 8, P: 1, KeyLen: 32},
	})
	require.NoError(t, err)
	corrupt := base64.StdEncoding.EncodeToString(data)
	assert.False(t, Verify(corrupt, "pw"))
}

func TestVerifyInvalidEmbeddedParams(t *testing.T) {
	// N must be a power of two > 1; a record claiming N=3 re-derives to
	// an scrypt error, which is just a failed match.
	data, err := json.Marshal(record{
		Salt:   base64.StdEncoding.EncodeToString([]byte("0123456789abcdef")),
		Hash:   base64.StdEncoding.EncodeToString(make([]byte, 32)),
		Params: params{N: 3, R: 8, P: 1, KeyLen: 32},
	})
	require.NoError(t, err)
	rec := base64.StdEncoding.EncodeToString(data)

	assert.False(t, Verify(rec, "pw"))
}
