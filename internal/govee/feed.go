package govee

import (
	"encoding/json"
	"fmt"

	"github.com/phillipkujawa/wemo-controller/internal/events"
	"github.com/phillipkujawa/wemo-controller/internal/infrastructure/mqtt"
)

// Subscriber is the broker surface the feed depends on; the mqtt
// package's Client satisfies it.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Feed consumes the vendor's MQTT notification stream and rebroadcasts
// device events (sensor triggers, button presses) as govee_event. The
// broker authenticates with the API key and pushes on the account
// topic "GA/<api key>".
type Feed struct {
	broadcaster Broadcaster
	logger      Logger
}

// NewFeed creates an event feed publishing into the given broadcaster.
func NewFeed(broadcaster Broadcaster, logger Logger) *Feed {
	return &Feed{broadcaster: broadcaster, logger: logger}
}

// FeedTopic returns the account notification topic for an API key.
func FeedTopic(apiKey string) string {
	return "GA/" + apiKey
}

// Attach subscribes the feed to the account topic on a connected
// broker client.
func (f *Feed) Attach(sub Subscriber, apiKey string) error {
	if apiKey == "" {
		return ErrMissingAPIKey
	}
	topic := FeedTopic(apiKey)
	if err := sub.Subscribe(topic, 0, f.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to event feed: %w", err)
	}
	f.logger.Info("event feed attached", "topic", topic)
	return nil
}

// feedMessage is the wire shape of a broker notification.
type feedMessage struct {
	SKU          string `json:"sku"`
	Device       string `json:"device"`
	DeviceName   string `json:"deviceName"`
	Capabilities []struct {
		Type     string          `json:"type"`
		Instance string          `json:"instance"`
		State    json.RawMessage `json:"state"`
	} `json:"capabilities"`
}

// HandleMessage parses one broker notification and rebroadcasts every
// event capability it carries. Messages without sku/device identity
// and capabilities of other types are ignored.
func (f *Feed) HandleMessage(topic string, payload []byte) error {
	var msg feedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("parsing feed message: %w", err)
	}

	if msg.SKU == "" || msg.Device == "" {
		f.logger.Debug("ignoring feed message without device identity", "topic", topic)
		return nil
	}

	name := msg.DeviceName
	if name == "" {
		name = "Unknown"
	}
	key := MakeKey(msg.SKU, msg.Device)

	for _, cap := range msg.Capabilities {
		if cap.Type != "devices.capabilities.event" {
			continue
		}

		var state any
		if len(cap.State) > 0 {
			if err := json.Unmarshal(cap.State, &state); err != nil {
				f.logger.Warn("unparseable event state", "id", key, "error", err)
				continue
			}
		}

		f.logger.Info("device event received", "id", key, "event", cap.Instance)
		f.broadcaster.Publish(events.TypeGoveeEvent, map[string]any{
			"deviceId":   key,
			"deviceName": name,
			"sku":        msg.SKU,
			"device":     msg.Device,
			"eventType":  cap.Instance,
			"state":      state,
		})
	}

	return nil
}
