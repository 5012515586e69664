// Package influxdb provides optional state-change telemetry.
//
// When enabled in config, the controller connects to an InfluxDB v2
// instance and a Recorder subscribes to the event broadcast alongside
// the push clients, writing a power_state point for every
// wemo_state_change and govee_state_change event. Writes are batched
// and non-blocking; a down InfluxDB never affects device control.
//
// The integration is disabled by default — the controller is fully
// functional without it.
package influxdb
