package govee

import (
	"context"
	"strings"

	"github.com/phillipkujawa/wemo-controller/internal/device"
	"github.com/phillipkujawa/wemo-controller/internal/events"
)

// CloudClient is the Platform API surface the service depends on.
// *Client satisfies it; tests substitute fakes.
type CloudClient interface {
	ListDevices(ctx context.Context) ([]Record, error)
	GetState(ctx context.Context, sku, device string) (Info, error)
	Control(ctx context.Context, sku, device string, value int) error
}

// Broadcaster is the event fan-out surface the service publishes to.
type Broadcaster interface {
	Publish(eventType string, data any)
}

// Service owns the cloud device cache and coordinates discovery,
// state reads and power control. Successful control actions are
// broadcast to push subscribers.
type Service struct {
	registry    *device.Registry[Record]
	client      CloudClient
	broadcaster Broadcaster
	logger      Logger
}

// NewService creates a Govee service around an empty cache.
func NewService(client CloudClient, broadcaster Broadcaster) *Service {
	return &Service{
		registry:    device.NewRegistry[Record](),
		client:      client,
		broadcaster: broadcaster,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the service and its registry.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
	s.registry.SetLogger(logger)
}

// Discover replaces the cache with the account's current device list
// and returns every device with fresh state. A state read failing for
// one device does not abort the batch: that device is reported with
// state "unknown".
func (s *Service) Discover(ctx context.Context) ([]Info, error) {
	s.logger.Info("fetching account device list")

	records, err := s.client.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	s.registry.Replace(records)
	s.logger.Info("account device list refreshed", "devices", len(records))

	return s.describeAll(ctx), nil
}

// List returns every cached device with fresh state, discovering
// first when the cache is empty (fresh process, nobody has called
// /govee/discover yet).
func (s *Service) List(ctx context.Context) ([]Info, error) {
	if s.registry.Len() == 0 {
		return s.Discover(ctx)
	}
	return s.describeAll(ctx), nil
}

// Control executes "on" or "off" against a cloud device, re-reads its
// state, broadcasts a govee_state_change event and returns the fresh
// Info. Returns ErrInvalidAction for other actions, ErrInvalidKey for
// a malformed id and device.ErrNotFound for a key outside the cache.
func (s *Service) Control(ctx context.Context, id, action string) (Info, error) {
	action = strings.ToLower(action)
	var value int
	switch action {
	case "on":
		value = 1
	case "off":
		value = 0
	default:
		return Info{}, ErrInvalidAction
	}

	if _, _, err := SplitKey(id); err != nil {
		return Info{}, err
	}

	rec, err := s.registry.Get(id)
	if err != nil {
		return Info{}, err
	}

	s.logger.Info("controlling device", "sku", rec.SKU, "device", rec.Device, "action", action)
	if err := s.client.Control(ctx, rec.SKU, rec.Device, value); err != nil {
		return Info{}, err
	}

	// Re-read so the caller sees the post-command state.
	info, err := s.client.GetState(ctx, rec.SKU, rec.Device)
	if err != nil {
		return Info{}, err
	}

	s.broadcaster.Publish(events.TypeGoveeStateChange, map[string]any{
		"deviceId": id,
		"action":   action,
		"state":    info,
	})
	return info, nil
}

// Len returns the number of cached devices.
func (s *Service) Len() int {
	return s.registry.Len()
}

// describeAll reads fresh state for every cached device. Failures are
// logged and surface as state "unknown" rather than aborting.
func (s *Service) describeAll(ctx context.Context) []Info {
	records := s.registry.List()
	infos := make([]Info, 0, len(records))
	for _, rec := range records {
		info, err := s.client.GetState(ctx, rec.SKU, rec.Device)
		if err != nil {
			s.logger.Warn("state read failed", "id", rec.Key(), "error", err)
			info = Info{
				ID:           rec.Key(),
				Name:         rec.Name,
				Model:        rec.SKU,
				Device:       rec.Device,
				Controllable: true,
				Retrievable:  true,
				State:        "unknown",
			}
		}
		infos = append(infos, info)
	}
	return infos
}
