package api

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredentials(t *testing.T) {
	creds, err := NewCredentials("auth_token=abc; ct0=deadbeef01", "")
	require.NoError(t, err)

	assert.Equal(t, "deadbeef01", creds.CSRFToken())
	assert.Equal(t, DefaultLang, creds.Lang())

	h := creds.Headers()
	assert.Equal(t, "Bearer "+GuestBearerToken, h.Get("Authorization"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "auth_token=abc; ct0=deadbeef01", h.Get("Cookie"))
	assert.Equal(t, "deadbeef01", h.Get("X-Csrf-Token"))
	assert.Equal(t, "yes", h.Get("X-Twitter-Active-User"))
	assert.Equal(t, "en-US", h.Get("X-Twitter-Client-Language"))
}

func TestNewCredentialsMissingCSRF(t *testing.T) {
	for _, cookie := range []string{"", "auth_token=abc", "ct0=NOTHEX"} {
		_, err := NewCredentials(cookie, "en-US")
		require.Error(t, err, cookie)
		assert.True(t, errors.Is(err, ErrMissingCredential), cookie)
		assert.True(t, errors.Is(err, ErrConfiguration), cookie)

		var cfgErr *ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "ct0", cfgErr.Setting)
	}
}

func TestCredentialsHeadersAreCopies(t *testing.T) {
	creds, err := NewCredentials("ct0=abc", "fr-FR")
	require.NoError(t, err)

	h := creds.Headers()
	h.Set("X-Csrf-Token", "tampered")
	h.Del("Cookie")

	fresh := creds.Headers()
	assert.Equal(t, "abc", fresh.Get("X-Csrf-Token"))
	assert.Equal(t, "ct0=abc", fresh.Get("Cookie"))
	assert.Equal(t, "fr-FR", fresh.Get("X-Twitter-Client-Language"))
}

func TestNewCredentialsFromMap(t *testing.T) {
	creds, err := NewCredentialsFromMap(map[string]string{
		"ct0":        "cafe",
		"auth_token": "tok",
	}, "en-US")
	require.NoError(t, err)
	assert.Equal(t, "auth_token=tok; ct0=cafe", creds.Headers().Get("Cookie"))
	assert.Equal(t, "cafe", creds.CSRFToken())
}
