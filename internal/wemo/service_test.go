package wemo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phillipkujawa/wemo-controller/internal/device"
	"github.com/phillipkujawa/wemo-controller/internal/events"
)

// fakeClient is an in-memory UPnP client for service tests.
type fakeClient struct {
	discovered  []Device
	discoverErr error

	states    map[string]int // keyed by Device.Key()
	stateErr  error
	setErr    error
	renameErr error

	insight    map[string]int
	insightErr error

	setCalls    []int
	renameCalls []string
}

func (f *fakeClient) Discover(ctx context.Context, window time.Duration) ([]Device, error) {
	return f.discovered, f.discoverErr
}

func (f *fakeClient) GetBinaryState(ctx context.Context, dev Device) (int, error) {
	if f.stateErr != nil {
		return 0, f.stateErr
	}
	return f.states[dev.Key()], nil
}

func (f *fakeClient) SetBinaryState(ctx context.Context, dev Device, value int) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls = append(f.setCalls, value)
	if f.states == nil {
		f.states = make(map[string]int)
	}
	f.states[dev.Key()] = value
	return nil
}

func (f *fakeClient) SetFriendlyName(ctx context.Context, dev Device, name string) error {
	if f.renameErr != nil {
		return f.renameErr
	}
	f.renameCalls = append(f.renameCalls, name)
	return nil
}

func (f *fakeClient) InsightParams(ctx context.Context, dev Device) (map[string]int, error) {
	return f.insight, f.insightErr
}

// fakeBroadcaster records published events.
type fakeBroadcaster struct {
	published []publishedEvent
}

type publishedEvent struct {
	eventType string
	data      any
}

func (f *fakeBroadcaster) Publish(eventType string, data any) {
	f.published = append(f.published, publishedEvent{eventType, data})
}

func newTestService(client *fakeClient) (*Service, *fakeBroadcaster) {
	b := &fakeBroadcaster{}
	return NewService(client, b, 3*time.Second), b
}

func TestService_DiscoverMergesIntoRegistry(t *testing.T) {
	client := &fakeClient{
		discovered: []Device{
			{Serial: "S1", Name: "Lamp", Host: "10.0.0.2", Port: 49153},
		},
		states: map[string]int{"S1": 1},
	}
	svc, _ := newTestService(client)

	infos, err := svc.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("got %d devices, want 1", len(infos))
	}
	if infos[0].ID != "S1" || infos[0].State == nil || *infos[0].State != 1 {
		t.Errorf("info = %+v", infos[0])
	}

	// A second round with a new device keeps the first.
	client.discovered = []Device{{Serial: "S2", Name: "Heater", Host: "10.0.0.3", Port: 49153}}
	infos, err = svc.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(infos) != 2 {
		t.Errorf("got %d devices after second round, want 2", len(infos))
	}
}

func TestService_DiscoverError(t *testing.T) {
	client := &fakeClient{discoverErr: errors.New("no socket")}
	svc, _ := newTestService(client)

	if _, err := svc.Discover(context.Background()); err == nil {
		t.Fatal("expected discovery error")
	}
}

func TestService_ListUnreachableDeviceHasNilState(t *testing.T) {
	client := &fakeClient{
		discovered: []Device{{Serial: "S1", Name: "Lamp"}},
	}
	svc, _ := newTestService(client)
	if _, err := svc.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}

	client.stateErr = errors.New("connection refused")
	infos := svc.List(context.Background())
	if len(infos) != 1 {
		t.Fatalf("got %d devices, want 1", len(infos))
	}
	if infos[0].State != nil {
		t.Errorf("State = %v, want nil for unreachable device", *infos[0].State)
	}
}

func TestService_GetUnknownDevice(t *testing.T) {
	svc, _ := newTestService(&fakeClient{})
	if _, err := svc.Get(context.Background(), "nope"); !errors.Is(err, device.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestService_ControlActions(t *testing.T) {
	tests := []struct {
		name       string
		action     string
		startState int
		wantSet    int
	}{
		{"on", "on", 0, 1},
		{"off", "off", 1, 0},
		{"toggle from off", "toggle", 0, 1},
		{"toggle from on", "toggle", 1, 0},
		{"toggle from standby", "toggle", 8, 0},
		{"uppercase action", "ON", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				discovered: []Device{{Serial: "S1", Name: "Lamp"}},
				states:     map[string]int{"S1": tt.startState},
			}
			svc, b := newTestService(client)
			if _, err := svc.Discover(context.Background()); err != nil {
				t.Fatal(err)
			}

			info, err := svc.Control(context.Background(), "S1", tt.action)
			if err != nil {
				t.Fatalf("Control() error = %v", err)
			}
			if len(client.setCalls) != 1 || client.setCalls[0] != tt.wantSet {
				t.Errorf("setCalls = %v, want [%d]", client.setCalls, tt.wantSet)
			}
			if info.State == nil || *info.State != tt.wantSet {
				t.Errorf("info.State = %v, want %d", info.State, tt.wantSet)
			}
			if len(b.published) != 1 || b.published[0].eventType != events.TypeWemoStateChange {
				t.Errorf("published = %+v, want one wemo_state_change", b.published)
			}
		})
	}
}

func TestService_ControlInvalidAction(t *testing.T) {
	client := &fakeClient{discovered: []Device{{Serial: "S1", Name: "Lamp"}}}
	svc, b := newTestService(client)
	if _, err := svc.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Control(context.Background(), "S1", "dim"); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("Control() error = %v, want ErrInvalidAction", err)
	}
	for _, p := range b.published {
		if p.eventType == events.TypeWemoStateChange {
			t.Error("invalid action broadcast a state change")
		}
	}
}

func TestService_ControlUnknownDevice(t *testing.T) {
	svc, b := newTestService(&fakeClient{})
	if _, err := svc.Control(context.Background(), "nope", "on"); !errors.Is(err, device.ErrNotFound) {
		t.Errorf("Control() error = %v, want ErrNotFound", err)
	}
	if len(b.published) != 0 {
		t.Error("unknown device broadcast an event")
	}
}

func TestService_ControlSetFailureDoesNotBroadcast(t *testing.T) {
	client := &fakeClient{
		discovered: []Device{{Serial: "S1", Name: "Lamp"}},
		setErr:     errors.New("connection refused"),
	}
	svc, b := newTestService(client)
	if _, err := svc.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Control(context.Background(), "S1", "on"); err == nil {
		t.Fatal("expected control error")
	}
	if len(b.published) != 0 {
		t.Errorf("published = %+v, want none", b.published)
	}
}

func TestService_RenameKeepsSerialKey(t *testing.T) {
	client := &fakeClient{
		discovered: []Device{{Serial: "S1", Name: "Lamp"}},
		states:     map[string]int{"S1": 1},
	}
	svc, _ := newTestService(client)
	if _, err := svc.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}

	info, err := svc.Rename(context.Background(), "S1", "Reading Light")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if info.ID != "S1" || info.Name != "Reading Light" {
		t.Errorf("info = %+v", info)
	}
	if len(client.renameCalls) != 1 || client.renameCalls[0] != "Reading Light" {
		t.Errorf("renameCalls = %v", client.renameCalls)
	}

	// Still addressable under the serial key.
	if _, err := svc.Get(context.Background(), "S1"); err != nil {
		t.Errorf("Get() after rename error = %v", err)
	}
}

func TestService_RenameRekeysNamedDevice(t *testing.T) {
	// No serial: the device is keyed by name, so renaming moves it.
	client := &fakeClient{
		discovered: []Device{{Name: "Lamp"}},
	}
	svc, _ := newTestService(client)
	if _, err := svc.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}

	info, err := svc.Rename(context.Background(), "Lamp", "Reading Light")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if info.ID != "Reading Light" {
		t.Errorf("ID = %q, want new name as key", info.ID)
	}

	if _, err := svc.Get(context.Background(), "Lamp"); !errors.Is(err, device.ErrNotFound) {
		t.Errorf("old key still resolves: %v", err)
	}
	if _, err := svc.Get(context.Background(), "Reading Light"); err != nil {
		t.Errorf("new key does not resolve: %v", err)
	}
}

func TestService_RenameValidation(t *testing.T) {
	client := &fakeClient{discovered: []Device{{Serial: "S1", Name: "Lamp"}}}
	svc, _ := newTestService(client)
	if _, err := svc.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Rename(context.Background(), "S1", "   "); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Rename() error = %v, want ErrEmptyName", err)
	}
	if _, err := svc.Rename(context.Background(), "nope", "New"); !errors.Is(err, device.ErrNotFound) {
		t.Errorf("Rename() error = %v, want ErrNotFound", err)
	}
}

func TestService_DescribeInsightModel(t *testing.T) {
	client := &fakeClient{
		discovered: []Device{{Serial: "S1", Name: "Heater", Model: "Insight"}},
		states:     map[string]int{"S1": 8},
		insight:    map[string]int{"state": 8, "currentpower": 1250},
	}
	svc, _ := newTestService(client)
	if _, err := svc.Discover(context.Background()); err != nil {
		t.Fatal(err)
	}

	info, err := svc.Get(context.Background(), "S1")
	if err != nil {
		t.Fatal(err)
	}
	if info.InsightParams == nil || info.InsightParams["currentpower"] != 1250 {
		t.Errorf("InsightParams = %v", info.InsightParams)
	}

	// A failed insight read still returns the device.
	client.insightErr = errors.New("timeout")
	info, err = svc.Get(context.Background(), "S1")
	if err != nil {
		t.Fatal(err)
	}
	if info.InsightParams != nil {
		t.Errorf("InsightParams = %v, want nil after read failure", info.InsightParams)
	}
}
