// Package govee implements the cloud device family.
//
// Devices live behind the vendor's Platform API: discovery lists the
// account's devices, state reads and power control are REST calls, and
// asynchronous notifications (sensor triggers, button presses) arrive
// over the vendor's MQTT broker and are rebroadcast to push
// subscribers as govee_event.
//
// Devices are keyed by the composite "sku|device" identifier. The
// registry caches the account's device list only; state is fetched
// fresh from the cloud on every read.
package govee
