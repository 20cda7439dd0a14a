package accounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/opa-project/opa/common/crypto"
)

// ErrConfiguration is returned when credentials are missing or malformed
var ErrConfiguration = errors.New("credential configuration error")

var (
	errRequiresAPIKey      = errors.New("requires API key but default/empty one set")
	errRequiresAPISecret   = errors.New("requires API secret but default/empty one set")
	errBase64DecodeFailure = errors.New("base64 decode has failed")
)

// Credentials define parameters that allow for an authenticated request.
// Secret holds the base64 encoded key material exactly as issued by the
// exchange.
type Credentials struct {
	Key       string
	Secret    string
	OTPSecret string
}

// IsEmpty return true if the underlying credentials type has not been filled
// with at least one item
func (c *Credentials) IsEmpty() bool {
	return c == nil || (c.Key == "" && c.Secret == "" && c.OTPSecret == "")
}

// Validate checks that both key and secret are set and that the secret
// decodes as base64
func (c *Credentials) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, errRequiresAPIKey)
	}
	if c.Key == "" {
		return fmt.Errorf("%w: %w", ErrConfiguration, errRequiresAPIKey)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: %w", ErrConfiguration, errRequiresAPISecret)
	}
	if _, err := c.DecodedSecret(); err != nil {
		return err
	}
	return nil
}

// DecodedSecret returns the base64 decoded secret
func (c *Credentials) DecodedSecret() ([]byte, error) {
	return DecodeSecret(c.Secret)
}

// DecodeSecret base64 decodes an API secret, returning ErrConfiguration on
// failure
func DecodeSecret(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, errRequiresAPISecret)
	}
	b, err := crypto.Base64Decode(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrConfiguration, errBase64DecodeFailure, err)
	}
	return b, nil
}

// String prints out basic credential info, never the secret itself
func (c *Credentials) String() string {
	if c == nil {
		return "Key:[] Secret:[] OTP:[]"
	}
	return fmt.Sprintf("Key:[%s...] Secret:[%s] OTP:[%t]",
		obfuscate(c.Key), strings.Repeat("*", min(len(c.Secret), 4)), c.OTPSecret != "")
}

func obfuscate(s string) string {
	if len(s) <= 5 {
		return s
	}
	return s[:5]
}
