package security_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messenger/internal/security"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour, 24*time.Hour)

	access, err := svc.CreateAccess(42)
	require.NoError(t, err)
	refresh, err := svc.CreateRefresh(42)
	require.NoError(t, err)

	id, err := svc.ParseAccess(access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = svc.ParseRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenKindMismatch(t *testing.T) {
	svc := security.NewTokenService("test-secret", time.Hour, 24*time.Hour)

	access, err := svc.CreateAccess(42)
	require.NoError(t, err)
	refresh, err := svc.CreateRefresh(42)
	require.NoError(t, err)

	_, err = svc.ParseRefresh(access)
	assert.Error(t, err, "an access token must not pass as a refresh token")

	_, err = svc.ParseAccess(refresh)
	assert.Error(t, err, "a refresh token must not pass as an access token")
}

func TestTokenExpired(t *testing.T) {
	svc := security.NewTokenService("test-secret", -time.Minute, -time.Minute)

	access, err := svc.CreateAccess(42)
	require.NoError(t, err)

	_, err = svc.ParseAccess(access)
	assert.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := security.NewTokenService("secret-a", time.Hour, time.Hour)
	verifier := security.NewTokenService("secret-b", time.Hour, time.Hour)

	access, err := issuer.CreateAccess(42)
	require.NoError(t, err)

	_, err = verifier.ParseAccess(access)
	assert.Error(t, err)
}

func TestEncryptorRoundTrip(t *testing.T) {
	enc, err := security.NewEncryptor([]byte("any length key works"))
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("secret message")
	require.NoError(t, err)
	assert.NotEqual(t, "secret message", ciphertext)

	plain, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "secret message", plain)
}

func TestEncryptorRejectsTamperedCiphertext(t *testing.T) {
	enc, err := security.NewEncryptor([]byte("key"))
	require.NoError(t, err)

	_, err = enc.Decrypt("bm90IGEgcmVhbCBjaXBoZXJ0ZXh0IGF0IGFsbCE=")
	assert.Error(t, err)
}

func TestEncryptorEmptyKey(t *testing.T) {
	_, err := security.NewEncryptor(nil)
	assert.Error(t, err)
}
