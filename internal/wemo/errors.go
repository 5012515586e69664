package wemo

import "errors"

// Sentinel errors for WeMo operations.
var (
	// ErrInvalidAction indicates an unsupported control action.
	// Supported actions are "on", "off" and "toggle".
	ErrInvalidAction = errors.New("wemo: invalid action")

	// ErrEmptyName indicates a rename request with a blank name.
	ErrEmptyName = errors.New("wemo: name must not be empty")

	// ErrDeviceUnreachable indicates a SOAP call to the device failed.
	ErrDeviceUnreachable = errors.New("wemo: device unreachable")
)
