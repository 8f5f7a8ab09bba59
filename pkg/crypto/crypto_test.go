package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	enc, err := New(testKey(t))
	require.NoError(t, err)

	for _, plaintext := range []string{
		"",
		"hello",
		`{"access_token":"abc","refresh_token":"def","expires_in":14400}`,
		"unicode: ü ✓ 日本語",
	} {
		payload, err := enc.Encrypt(plaintext)
		require.NoError(t, err)

		got, err := enc.Decrypt(payload)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	t.Parallel()

	enc, err := New(testKey(t))
	require.NoError(t, err)

	first, err := enc.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := enc.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first.IV, second.IV)
	assert.NotEqual(t, first.EncryptedData, second.EncryptedData)
}

func TestDecryptDetectsTampering(t *testing.T) {
	t.Parallel()

	enc, err := New(testKey(t))
	require.NoError(t, err)

	payload, err := enc.Encrypt("sensitive token data")
	require.NoError(t, err)

	t.Run("flipped ciphertext byte", func(t *testing.T) {
		t.Parallel()
		raw, err := base64.StdEncoding.DecodeString(payload.EncryptedData)
		require.NoError(t, err)
		raw[0] ^= 0xff
		tampered := payload
		tampered.EncryptedData = base64.StdEncoding.EncodeToString(raw)

		_, err = enc.Decrypt(tampered)
		assert.Error(t, err)
	})

	t.Run("flipped IV byte", func(t *testing.T) {
		t.Parallel()
		raw, err := base64.StdEncoding.DecodeString(payload.IV)
		require.NoError(t, err)
		raw[0] ^= 0xff
		tampered := payload
		tampered.IV = base64.StdEncoding.EncodeToString(raw)

		_, err = enc.Decrypt(tampered)
		assert.Error(t, err)
	})

	t.Run("malformed base64", func(t *testing.T) {
		t.Parallel()
		tampered := payload
		tampered.EncryptedData = "not base64!!!"

		_, err := enc.Decrypt(tampered)
		assert.Error(t, err)
	})
}

func TestDecryptWithWrongKey(t *testing.T) {
	t.Parallel()

	enc, err := New(testKey(t))
	require.NoError(t, err)
	other, err := New(testKey(t))
	require.NoError(t, err)

	payload, err := enc.Encrypt("secret")
	require.NoError(t, err)

	_, err = other.Decrypt(payload)
	assert.Error(t, err)
}

func TestNewRejectsBadKeys(t *testing.T) {
	t.Parallel()

	_, err := New("")
	assert.Error(t, err)

	_, err = New("not base64!!!")
	assert.Error(t, err)

	// Too short.
	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	_, err = New(short)
	assert.Error(t, err)
}
