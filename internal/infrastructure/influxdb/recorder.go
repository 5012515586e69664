package influxdb

import (
	"context"
	"encoding/json"

	"github.com/phillipkujawa/wemo-controller/internal/events"
)

// MetricWriter is the subset of Client the recorder needs.
type MetricWriter interface {
	WriteDeviceMetric(deviceID string, measurement string, value float64)
}

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Recorder consumes the controller's event broadcast and records power
// state transitions as telemetry points. It is an ordinary subscriber:
// if it falls behind, events are dropped like for any other subscriber
// and device control is never affected.
type Recorder struct {
	writer MetricWriter
	sub    *events.Subscription
	logger Logger
}

// NewRecorder creates a telemetry recorder over an existing subscription.
func NewRecorder(writer MetricWriter, sub *events.Subscription, logger Logger) *Recorder {
	return &Recorder{writer: writer, sub: sub, logger: logger}
}

// Run drains the subscription until the context is cancelled or the
// subscription is closed. Call from a dedicated goroutine.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.sub.C:
			if !ok {
				return
			}
			r.record(ev)
		}
	}
}

// record extracts a power value from a state-change event, if any.
func (r *Recorder) record(ev events.Event) {
	if ev.Type != events.TypeWemoStateChange && ev.Type != events.TypeGoveeStateChange {
		return
	}

	deviceID, value, ok := powerValue(ev.Data)
	if !ok {
		r.logger.Debug("state change carried no usable power value", "type", ev.Type)
		return
	}

	r.writer.WriteDeviceMetric(deviceID, "power_state", value)
}

// statePayload mirrors the wire shape of state-change event data. The
// nested state value is an int for WeMo (0/1/8) and "on"/"off"/"unknown"
// for Govee.
type statePayload struct {
	DeviceID string `json:"deviceId"`
	State    struct {
		State any `json:"state"`
	} `json:"state"`
}

// powerValue normalises both families' state representations to a float.
func powerValue(data any) (deviceID string, value float64, ok bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", 0, false
	}

	var payload statePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.DeviceID == "" {
		return "", 0, false
	}

	switch v := payload.State.State.(type) {
	case float64:
		return payload.DeviceID, v, true
	case string:
		switch v {
		case "on":
			return payload.DeviceID, 1, true
		case "off":
			return payload.DeviceID, 0, true
		}
	}
	return "", 0, false
}
