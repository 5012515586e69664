// Package device provides the in-memory device registry.
//
// The controller keeps one Registry per vendor family: WeMo devices
// keyed by serial number (display name as fallback) and Govee devices
// keyed by the composite "model|device" identifier. The registry is a
// volatile, mutex-guarded map — there is deliberately no persistence,
// no eviction, and no versioning. Discovery and state refreshes
// overwrite records wholesale; a restart starts empty.
//
// # Usage
//
//	reg := device.NewRegistry[wemo.Device]()
//	reg.Upsert(dev)
//	dev, err := reg.Get("221548K01006A5")
//	if errors.Is(err, device.ErrNotFound) { ... }
//
// # Thread Safety
//
// All operations are serialised by a single coarse mutex per registry.
// Snapshot reads (List, Keys) copy under the lock; a racing Upsert may
// or may not be reflected in a snapshot already taken (last-write-wins).
package device
