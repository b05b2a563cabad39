package identity

import "errors"

var (
	// ErrInvalidCredentials means the provider rejected a credential pair
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrProviderUnreachable means a network or transport failure talking
	// to the identity provider
	ErrProviderUnreachable = errors.New("identity: provider unreachable")
)
