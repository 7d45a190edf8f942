package probe

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrCredentialNotSet indicates the per-account token variable is missing
// or empty in the environment.
var ErrCredentialNotSet = errors.New("credential not set")

// CredentialEnvName formats the environment variable holding the token for
// an account. The username is substituted literally.
func CredentialEnvName(prefix, username string) string {
	return fmt.Sprintf("%s_%s", prefix, username)
}

// ResolveToken looks up the account token by its formatted variable name.
// An unset or empty variable is an error so the probe fails before touching
// the network. lookup defaults to os.LookupEnv when nil.
func ResolveToken(lookup func(string) (string, bool), prefix, username string) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	name := CredentialEnvName(prefix, username)
	value, ok := lookup(name)
	if !ok || strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %s", ErrCredentialNotSet, name)
	}

	return value, nil
}
