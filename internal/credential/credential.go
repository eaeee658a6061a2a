// Package credential turns plaintext secrets into self-describing hash
// records and verifies candidates against them. A record carries its own
// salt and scrypt cost parameters, so verification never depends on the
// defaults in effect when the record was written.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

// Default scrypt parameters. Stored per-record, so they can be raised
// later without invalidating anything already in the store.
const (
	scryptN      = 32768
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 64

	saltLength = 16
)

type params struct {
	N      int `json:"n"`
	R      int `json:"r"`
	P      int `json:"p"`
	KeyLen int `json:"keylen"`
}

// record is the structured credential format: base64 over a JSON object.
// Records written before this format existed are bare plaintext and are
// handled by the fallback in Verify.
type record struct {
	Salt   string `json:"salt"`
	Hash   string `json:"hash"`
	Params params `json:"params"`
}

// Hash derives a key from secret with a fresh random salt and returns
// the serialized credential record.
func Hash(secret string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key, err := scrypt.Key([]byte(secret), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("deriving key: %w", err)
	}

	rec := record{
		Salt: base64.StdEncoding.EncodeToString(salt),
		Hash: base64.StdEncoding.EncodeToString(key),
		Params: params{
			N:      scryptN,
			R:      scryptR,
			P:      scryptP,
			KeyLen: scryptKeyLen,
		},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encoding record: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Verify reports whether candidate matches stored. Structured records
// are re-derived with the embedded salt and parameters and compared in
// constant time. Anything that does not parse as the structured format
// is treated as a legacy plaintext record and compared directly;
// corrupt records are therefore indistinguishable from a wrong secret.
//
// Deprecated: the plaintext fallback exists only for records created
// before the structured format and should not be relied on for new data.
func Verify(stored, candidate string) bool {
	rec, ok := parse(stored)
	if !ok {
		// Legacy plaintext record.
		return stored == candidate
	}

	salt, err := base64.StdEncoding.DecodeString(rec.Salt)
	if err != nil {
		return stored == candidate
	}
	want, err := base64.StdEncoding.DecodeString(rec.Hash)
	if err != nil {
		return stored == candidate
	}

	got, err := scrypt.Key([]byte(candidate), salt, rec.Params.N, rec.Params.R, rec.Params.P, rec.Params.KeyLen)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(got, want) == 1
}

func parse(stored string) (record, bool) {
	var rec record

	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return rec, false
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, false
	}
	if rec.Salt == "" || rec.Hash == "" {
		return rec, false
	}
	if rec.Params.N < 2 || rec.Params.R < 1 || rec.Params.P < 1 || rec.Params.KeyLen < 1 {
		return rec, false
	}
	return rec, true
}
