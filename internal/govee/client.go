package govee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Platform API paths and the capability used for power switching.
const (
	pathUserDevices   = "/router/api/v1/user/devices"
	pathDeviceState   = "/router/api/v1/device/state"
	pathDeviceControl = "/router/api/v1/device/control"

	capabilityOnOff     = "devices.capabilities.on_off"
	capabilityOnline    = "devices.capabilities.online"
	instancePowerSwitch = "powerSwitch"
)

// Logger is the logging interface used by the Client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client speaks the vendor's Platform API. It is stateless and safe
// for concurrent use; every call carries a fresh request identifier.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     Logger
}

// NewClient creates a Platform API client. The timeout bounds each
// REST call.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// apiEnvelope is the common wrapper of every Platform API response.
// A transport-level 200 can still carry a failure code inside.
type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
	Payload json.RawMessage `json:"payload"`
}

// capability is one entry of a device's capabilities list, in both
// the listing and state-report shapes.
type capability struct {
	Type     string `json:"type"`
	Instance string `json:"instance"`
	State    struct {
		Value any `json:"value"`
	} `json:"state"`
}

// ListDevices fetches the account's device list.
func (c *Client) ListDevices(ctx context.Context) ([]Record, error) {
	env, err := c.request(ctx, http.MethodGet, pathUserDevices, nil)
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(env.Data, &records); err != nil {
		return nil, fmt.Errorf("%w: malformed device list: %v", ErrUpstream, err)
	}
	return records, nil
}

// statePayload is the inner payload of a device state response.
type statePayload struct {
	SKU          string       `json:"sku"`
	Device       string       `json:"device"`
	DeviceName   string       `json:"deviceName"`
	Capabilities []capability `json:"capabilities"`
}

// GetState reads a device's current state from the cloud and folds
// its capability report into an Info. A device without a power switch
// capability reports state "unknown".
func (c *Client) GetState(ctx context.Context, sku, device string) (Info, error) {
	body := map[string]any{
		"requestId": uuid.NewString(),
		"payload":   map[string]string{"sku": sku, "device": device},
	}

	env, err := c.request(ctx, http.MethodPost, pathDeviceState, body)
	if err != nil {
		return Info{}, err
	}

	var payload statePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return Info{}, fmt.Errorf("%w: malformed state payload: %v", ErrUpstream, err)
	}

	info := Info{
		ID:           MakeKey(sku, device),
		Name:         payload.DeviceName,
		Model:        sku,
		Device:       device,
		Controllable: true,
		Retrievable:  true,
		State:        "unknown",
	}

	for _, cap := range payload.Capabilities {
		switch {
		case cap.Type == capabilityOnline:
			online := toBool(cap.State.Value)
			info.Online = &online
		case cap.Type == capabilityOnOff && cap.Instance == instancePowerSwitch:
			switch toInt(cap.State.Value) {
			case 1:
				info.State = "on"
			case 0:
				info.State = "off"
			}
		}
	}

	return info, nil
}

// Control sends a power switch command: 1 for on, 0 for off.
func (c *Client) Control(ctx context.Context, sku, device string, value int) error {
	body := map[string]any{
		"requestId": uuid.NewString(),
		"payload": map[string]any{
			"sku":    sku,
			"device": device,
			"capability": map[string]any{
				"type":     capabilityOnOff,
				"instance": instancePowerSwitch,
				"value":    value,
			},
		},
	}

	_, err := c.request(ctx, http.MethodPost, pathDeviceControl, body)
	return err
}

// request performs one Platform API call and unwraps the response
// envelope, folding transport errors, non-2xx statuses and in-band
// failure codes into ErrUpstream.
func (c *Client) request(ctx context.Context, method, path string, body any) (*apiEnvelope, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Govee-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("cloud api error", "path", path, "status", resp.StatusCode, "body", string(data))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, string(data))
	}

	var env apiEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", ErrUpstream, err)
	}
	if env.Code != 200 {
		c.logger.Error("cloud api rejected request", "path", path, "code", env.Code, "msg", env.Message)
		return nil, fmt.Errorf("%w: code %d: %s", ErrUpstream, env.Code, env.Message)
	}

	return &env, nil
}

// toInt normalises a JSON capability value to an int. The API is not
// strict about number vs string here.
func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if n == "1" {
			return 1
		}
		if n == "0" {
			return 0
		}
	}
	return -1
}

// toBool normalises a JSON capability value to a bool.
func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b == "true" || b == "1"
	}
	return false
}
