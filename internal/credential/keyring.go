package credential

import (
	"errors"
	"fmt"
	"os"

	"github.com/99designs/keyring"
)

const serviceName = "approvaldesk"

// Keyring entries holding the desk's secrets.
const (
	KeyBackendDSN   = "backend-dsn"
	KeyAccessToken  = "access-token"
	KeySMTPPassword = "smtp-password"
	KeyIMAPPassword = "imap-password"
)

// envVars maps keyring entries to the environment variables that
// override them.
var envVars = map[string]string{
	KeyBackendDSN:   "APPROVALDESK_BACKEND_DSN",
	KeyAccessToken:  "APPROVALDESK_ACCESS_TOKEN",
	KeySMTPPassword: "APPROVALDESK_SMTP_PASSWORD",
	KeyIMAPPassword: "APPROVALDESK_IMAP_PASSWORD",
}

// open is replaced in tests.
var open = openKeyring

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/approvaldesk/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("approvaldesk-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Lookup returns the secret for key from its environment variable when
// set, and from the keyring otherwise.
func Lookup(key string) (string, error) {
	if env, ok := envVars[key]; ok {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	return Get(key)
}

// LookupOptional is Lookup for secrets that may be absent. A missing
// keyring entry yields an empty value and no error; any other keyring
// failure is returned.
func LookupOptional(key string) (string, error) {
	v, err := Lookup(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	return v, err
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
