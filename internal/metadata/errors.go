package metadata

import "errors"

// Sentinel errors for the metadata package.
var (
	// ErrConfiguration is returned when an identifier is missing or malformed.
	ErrConfiguration = errors.New("metadata: invalid configuration")

	// ErrIntegrity is returned when a foreign key cannot be registered.
	// The graph is left exactly as it was before the failed call.
	ErrIntegrity = errors.New("metadata: integrity violation")
)
