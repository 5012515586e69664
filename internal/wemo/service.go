package wemo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phillipkujawa/wemo-controller/internal/device"
	"github.com/phillipkujawa/wemo-controller/internal/events"
)

// DeviceClient is the UPnP surface the service depends on. *Client
// satisfies it; tests substitute fakes.
type DeviceClient interface {
	Discover(ctx context.Context, window time.Duration) ([]Device, error)
	GetBinaryState(ctx context.Context, dev Device) (int, error)
	SetBinaryState(ctx context.Context, dev Device, value int) error
	SetFriendlyName(ctx context.Context, dev Device, name string) error
	InsightParams(ctx context.Context, dev Device) (map[string]int, error)
}

// Broadcaster is the event fan-out surface the service publishes to.
type Broadcaster interface {
	Publish(eventType string, data any)
}

// Service owns the LAN device registry and coordinates discovery,
// state reads, control and renames. Successful control actions are
// broadcast to push subscribers.
type Service struct {
	registry    *device.Registry[Device]
	client      DeviceClient
	broadcaster Broadcaster
	logger      Logger

	discoveryWindow time.Duration
}

// NewService creates a WeMo service around an empty registry.
func NewService(client DeviceClient, broadcaster Broadcaster, discoveryWindow time.Duration) *Service {
	return &Service{
		registry:        device.NewRegistry[Device](),
		client:          client,
		broadcaster:     broadcaster,
		logger:          noopLogger{},
		discoveryWindow: discoveryWindow,
	}
}

// SetLogger sets the logger for the service and its registry.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
	s.registry.SetLogger(logger)
}

// Discover runs a discovery broadcast, merges responders into the
// registry and returns the full updated device list with state.
// Devices known from earlier rounds are kept: absence from one round
// does not mean gone.
func (s *Service) Discover(ctx context.Context) ([]Info, error) {
	s.logger.Info("starting discovery", "window", s.discoveryWindow)

	found, err := s.client.Discover(ctx, s.discoveryWindow)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	s.logger.Info("discovery finished", "found", len(found))

	for _, dev := range found {
		s.registry.Upsert(dev)
	}

	return s.List(ctx), nil
}

// List returns every known device with a fresh state read. No
// rediscovery is triggered; an unreachable device is listed with a
// nil state.
func (s *Service) List(ctx context.Context) []Info {
	devs := s.registry.List()
	infos := make([]Info, 0, len(devs))
	for _, dev := range devs {
		infos = append(infos, s.describe(ctx, dev))
	}
	return infos
}

// Get returns one device with a fresh state read.
// Returns device.ErrNotFound for an unknown key.
func (s *Service) Get(ctx context.Context, id string) (Info, error) {
	dev, err := s.registry.Get(id)
	if err != nil {
		return Info{}, err
	}
	return s.describe(ctx, dev), nil
}

// Control executes "on", "off" or "toggle" against a device, then
// re-reads its state, broadcasts a wemo_state_change event and returns
// the fresh Info. Returns ErrInvalidAction for anything else and
// device.ErrNotFound for an unknown key.
func (s *Service) Control(ctx context.Context, id, action string) (Info, error) {
	dev, err := s.registry.Get(id)
	if err != nil {
		return Info{}, err
	}

	var target int
	switch strings.ToLower(action) {
	case "on":
		target = 1
	case "off":
		target = 0
	case "toggle":
		current, err := s.client.GetBinaryState(ctx, dev)
		if err != nil {
			return Info{}, fmt.Errorf("reading state for toggle: %w", err)
		}
		if current == 0 {
			target = 1
		} else {
			target = 0
		}
	default:
		return Info{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	if err := s.client.SetBinaryState(ctx, dev, target); err != nil {
		return Info{}, err
	}
	s.logger.Info("device switched", "id", id, "action", action)

	info := s.describe(ctx, dev)
	s.broadcaster.Publish(events.TypeWemoStateChange, map[string]any{
		"deviceId": id,
		"action":   strings.ToLower(action),
		"state":    info,
	})
	return info, nil
}

// Rename pushes a new friendly name to the device and re-keys the
// registry entry: a device keyed by its name follows the name, one
// keyed by serial keeps its key. Returns ErrEmptyName for a blank
// name and device.ErrNotFound for an unknown key.
func (s *Service) Rename(ctx context.Context, id, name string) (Info, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Info{}, ErrEmptyName
	}

	dev, err := s.registry.Get(id)
	if err != nil {
		return Info{}, err
	}

	if err := s.client.SetFriendlyName(ctx, dev, name); err != nil {
		return Info{}, err
	}

	dev.Name = name
	s.registry.Rename(id, dev)
	s.logger.Info("device renamed", "id", id, "name", name, "key", dev.Key())

	return s.describe(ctx, dev), nil
}

// Len returns the number of known devices.
func (s *Service) Len() int {
	return s.registry.Len()
}

// describe builds a device's Info, reading live state best-effort.
// Insight models additionally carry their metering counters.
func (s *Service) describe(ctx context.Context, dev Device) Info {
	info := Info{
		ID:    dev.Key(),
		Name:  dev.Name,
		Model: dev.Model,
		Host:  dev.Host,
		Port:  dev.Port,
	}

	state, err := s.client.GetBinaryState(ctx, dev)
	if err != nil {
		s.logger.Warn("state read failed", "id", dev.Key(), "error", err)
	} else {
		info.State = &state
	}

	if strings.Contains(dev.Model, "Insight") {
		params, err := s.client.InsightParams(ctx, dev)
		if err != nil {
			s.logger.Warn("insight read failed", "id", dev.Key(), "error", err)
		} else {
			info.InsightParams = params
		}
	}

	return info
}
