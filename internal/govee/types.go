package govee

import (
	"fmt"
	"strings"
)

// Record is one cached account device as listed by the cloud.
type Record struct {
	SKU    string `json:"sku"`
	Device string `json:"device"`
	Name   string `json:"deviceName"`
}

// Key returns the composite registry key "sku|device".
func (r Record) Key() string {
	return MakeKey(r.SKU, r.Device)
}

// MakeKey builds the composite device key.
func MakeKey(sku, device string) string {
	return sku + "|" + device
}

// SplitKey splits a composite key back into its sku and device parts.
// The device part may itself contain further separators (MAC-style
// identifiers with colons are common), so only the first one splits.
func SplitKey(key string) (sku, device string, err error) {
	sku, device, ok := strings.Cut(key, "|")
	if !ok || sku == "" || device == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return sku, device, nil
}

// Info is the API representation of a cloud device.
//
// State is "on", "off" or "unknown": unknown covers devices whose
// state could not be read as well as devices without a power switch.
// Online is nil when the cloud did not report reachability.
type Info struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Model        string `json:"model"`
	Device       string `json:"device"`
	Controllable bool   `json:"controllable"`
	Retrievable  bool   `json:"retrievable"`
	State        string `json:"state"`
	Online       *bool  `json:"online"`
}
