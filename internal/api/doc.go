// Package api provides the HTTP REST API and push-stream server for
// the controller.
//
// It exposes device discovery, state reads and power control for both
// device families, and rebroadcasts state changes to Server-Sent
// Events and WebSocket subscribers.
//
// The server follows the same lifecycle pattern as other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
