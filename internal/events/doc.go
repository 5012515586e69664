// Package events provides the state-change broadcast mechanism.
//
// HTTP handlers publish named events (wemo_state_change,
// govee_state_change, govee_event) after successful device actions;
// every live push connection — SSE or WebSocket — holds a Subscription
// and drains its own buffered queue. The Broadcaster decouples the two
// sides completely: publishing never blocks, and a slow or stalled
// subscriber loses events instead of holding up producers or peers.
//
// There is no persistence, no replay, and no cross-subscriber ordering
// guarantee; each subscriber sees its own events in FIFO order.
package events
