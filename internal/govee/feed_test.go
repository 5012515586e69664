package govee

import (
	"testing"

	"github.com/phillipkujawa/wemo-controller/internal/events"
)

func TestFeed_HandleMessage(t *testing.T) {
	b := &fakeBroadcaster{}
	feed := NewFeed(b, noopLogger{})

	payload := `{
		"sku": "H5054",
		"device": "CC:DD",
		"deviceName": "Leak Sensor",
		"capabilities": [
			{"type": "devices.capabilities.event", "instance": "waterLeakEvent",
			 "state": [{"name": "leak", "value": 1}]},
			{"type": "devices.capabilities.online", "instance": "online",
			 "state": {"value": true}}
		]
	}`

	if err := feed.HandleMessage(FeedTopic("key"), []byte(payload)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if len(b.published) != 1 {
		t.Fatalf("published %d events, want 1 (only the event capability)", len(b.published))
	}
	ev := b.published[0]
	if ev.eventType != events.TypeGoveeEvent {
		t.Errorf("eventType = %q, want govee_event", ev.eventType)
	}

	data, ok := ev.data.(map[string]any)
	if !ok {
		t.Fatalf("data = %T", ev.data)
	}
	if data["deviceId"] != "H5054|CC:DD" {
		t.Errorf("deviceId = %v", data["deviceId"])
	}
	if data["deviceName"] != "Leak Sensor" {
		t.Errorf("deviceName = %v", data["deviceName"])
	}
	if data["eventType"] != "waterLeakEvent" {
		t.Errorf("eventType field = %v", data["eventType"])
	}
	if data["state"] == nil {
		t.Error("state missing")
	}
}

func TestFeed_HandleMessageDefaultsName(t *testing.T) {
	b := &fakeBroadcaster{}
	feed := NewFeed(b, noopLogger{})

	payload := `{"sku":"H5122","device":"EE:FF","capabilities":[
		{"type":"devices.capabilities.event","instance":"buttonPress","state":[]}]}`
	if err := feed.HandleMessage("GA/key", []byte(payload)); err != nil {
		t.Fatal(err)
	}
	if len(b.published) != 1 {
		t.Fatalf("published %d events, want 1", len(b.published))
	}
	data := b.published[0].data.(map[string]any)
	if data["deviceName"] != "Unknown" {
		t.Errorf("deviceName = %v, want Unknown", data["deviceName"])
	}
}

func TestFeed_HandleMessageIgnoresAnonymous(t *testing.T) {
	b := &fakeBroadcaster{}
	feed := NewFeed(b, noopLogger{})

	payload := `{"capabilities":[{"type":"devices.capabilities.event","instance":"x","state":[]}]}`
	if err := feed.HandleMessage("GA/key", []byte(payload)); err != nil {
		t.Fatal(err)
	}
	if len(b.published) != 0 {
		t.Errorf("published = %+v, want none", b.published)
	}
}

func TestFeed_HandleMessageMalformedJSON(t *testing.T) {
	b := &fakeBroadcaster{}
	feed := NewFeed(b, noopLogger{})

	if err := feed.HandleMessage("GA/key", []byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
	if len(b.published) != 0 {
		t.Errorf("published = %+v, want none", b.published)
	}
}

func TestFeedTopic(t *testing.T) {
	if got := FeedTopic("abc123"); got != "GA/abc123" {
		t.Errorf("FeedTopic() = %q", got)
	}
}
