package govee

import "errors"

// Sentinel errors for Govee operations.
var (
	// ErrMissingAPIKey indicates no API credential is configured.
	ErrMissingAPIKey = errors.New("govee: api key is not configured")

	// ErrInvalidKey indicates a device identifier that is not a valid
	// "sku|device" composite.
	ErrInvalidKey = errors.New("govee: invalid device key")

	// ErrInvalidAction indicates an unsupported control action.
	// Cloud devices support "on" and "off" only.
	ErrInvalidAction = errors.New("govee: invalid action")

	// ErrUpstream indicates the cloud API returned a failure or a
	// malformed payload. Maps to 502 at the HTTP boundary.
	ErrUpstream = errors.New("govee: upstream api failure")
)
