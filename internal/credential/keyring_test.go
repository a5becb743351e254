package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupPrefersEnvironment(t *testing.T) {
	t.Setenv("APPROVALDESK_ACCESS_TOKEN", "from-env")

	v, err := Lookup(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)
}

func TestEveryKeyHasEnvOverride(t *testing.T) {
	for _, key := range []string{KeyBackendDSN, KeyAccessToken, KeySMTPPassword, KeyIMAPPassword} {
		assert.NotEmpty(t, envVars[key], key)
	}
}

func withKeyring(t *testing.T, fn func() (keyring.Keyring, error)) {
	t.Helper()
	prev := open
	open = fn
	t.Cleanup(func() { open = prev })
}

func TestLookupOptional(t *testing.T) {
	t.Setenv("APPROVALDESK_ACCESS_TOKEN", "")

	ring := keyring.NewArrayKeyring(nil)
	withKeyring(t, func() (keyring.Keyring, error) { return ring, nil })

	v, err := LookupOptional(KeyAccessToken)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, Set(KeyAccessToken, "from-ring"))
	v, err = LookupOptional(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "from-ring", v)

	withKeyring(t, func() (keyring.Keyring, error) { return nil, errors.New("dbus unavailable") })
	_, err = LookupOptional(KeyAccessToken)
	assert.ErrorContains(t, err, "dbus unavailable")
}
