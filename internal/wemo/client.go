package wemo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// UPnP constants for the Belkin device family.
const (
	ssdpAddress  = "239.255.255.250:1900"
	searchTarget = "urn:Belkin:service:basicevent:1"

	basicEventPath = "/upnp/control/basicevent1"
	basicEventURN  = "urn:Belkin:service:basicevent:1"

	insightPath = "/upnp/control/insight1"
	insightURN  = "urn:Belkin:service:insight:1"
)

// insightFields names the pipe-separated values of an InsightParams
// response, in wire order.
var insightFields = []string{
	"state", "lastchange", "onfor", "ontoday", "ontotal",
	"timeperiod", "wifipower", "currentpower", "todaymw", "totalmw",
}

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

// Client speaks UPnP to LAN devices: SSDP for discovery, SOAP for
// state and control. It is stateless and safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     Logger
}

// NewClient creates a UPnP client. The timeout bounds each HTTP call
// (setup.xml fetches and SOAP exchanges), not discovery as a whole.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Discover broadcasts an M-SEARCH for the Belkin basicevent service
// and describes every responder seen within the window.
//
// Discovery is best-effort by nature: the window closing is not an
// error, and a responder whose description cannot be fetched is
// logged and skipped rather than failing the batch.
func (c *Client) Discover(ctx context.Context, window time.Duration) ([]Device, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("opening discovery socket: %w", err)
	}
	defer conn.Close()

	dst, err := net.ResolveUDPAddr("udp4", ssdpAddress)
	if err != nil {
		return nil, fmt.Errorf("resolving ssdp address: %w", err)
	}

	search := "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: " + ssdpAddress + "\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: 2\r\n" +
		"ST: " + searchTarget + "\r\n" +
		"\r\n"
	if _, err := conn.WriteTo([]byte(search), dst); err != nil {
		return nil, fmt.Errorf("sending m-search: %w", err)
	}

	deadline := time.Now().Add(window)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetReadDeadline(deadline)

	locations := make(map[string]struct{})
	buf := make([]byte, 2048)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			// The window closing is the normal exit.
			break
		}
		if loc := parseSearchResponse(buf[:n]); loc != "" {
			locations[loc] = struct{}{}
		}
	}

	devices := make([]Device, 0, len(locations))
	for loc := range locations {
		dev, err := c.describe(ctx, loc)
		if err != nil {
			c.logger.Warn("skipping unresponsive device", "location", loc, "error", err)
			continue
		}
		c.logger.Info("device discovered",
			"name", dev.Name,
			"serial", dev.Serial,
			"host", dev.Host,
			"port", dev.Port,
		)
		devices = append(devices, dev)
	}

	return devices, nil
}

// parseSearchResponse extracts the LOCATION header from an SSDP
// response datagram, or returns "" when there is none.
func parseSearchResponse(data []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if k, v, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(k), "location") {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// setupRoot mirrors the parts of setup.xml the controller reads.
type setupRoot struct {
	Device struct {
		FriendlyName string `xml:"friendlyName"`
		ModelName    string `xml:"modelName"`
		SerialNumber string `xml:"serialNumber"`
	} `xml:"device"`
}

// describe fetches a responder's setup.xml and builds its Device record.
func (c *Client) describe(ctx context.Context, location string) (Device, error) {
	u, err := url.Parse(location)
	if err != nil {
		return Device{}, fmt.Errorf("parsing location %q: %w", location, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return Device{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Device{}, fmt.Errorf("fetching setup.xml: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Device{}, fmt.Errorf("fetching setup.xml: status %d", resp.StatusCode)
	}

	var root setupRoot
	if err := xml.NewDecoder(resp.Body).Decode(&root); err != nil {
		return Device{}, fmt.Errorf("parsing setup.xml: %w", err)
	}

	port := 49153
	if p := u.Port(); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			port = parsed
		}
	}

	return Device{
		Serial: root.Device.SerialNumber,
		Name:   root.Device.FriendlyName,
		Model:  root.Device.ModelName,
		Host:   u.Hostname(),
		Port:   port,
	}, nil
}

// GetBinaryState reads the device's power state. Returns 0 (off),
// 1 (on), or 8 (standby, metering models with no load drawing power).
func (c *Client) GetBinaryState(ctx context.Context, dev Device) (int, error) {
	body, err := c.soapCall(ctx, dev, basicEventPath, basicEventURN, "GetBinaryState", "")
	if err != nil {
		return 0, err
	}
	raw, ok := extractTag(body, "BinaryState")
	if !ok {
		return 0, fmt.Errorf("%w: no BinaryState in response", ErrDeviceUnreachable)
	}
	// Metering models append extra pipe-separated fields.
	raw, _, _ = strings.Cut(raw, "|")
	state, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable BinaryState %q", ErrDeviceUnreachable, raw)
	}
	return state, nil
}

// SetBinaryState switches the device: 1 for on, 0 for off.
func (c *Client) SetBinaryState(ctx context.Context, dev Device, value int) error {
	args := fmt.Sprintf("<BinaryState>%d</BinaryState>", value)
	_, err := c.soapCall(ctx, dev, basicEventPath, basicEventURN, "SetBinaryState", args)
	return err
}

// SetFriendlyName pushes a new friendly name to the device itself, so
// the rename survives rediscovery and shows up in other controllers.
func (c *Client) SetFriendlyName(ctx context.Context, dev Device, name string) error {
	args := "<FriendlyName>" + xmlEscape(name) + "</FriendlyName>"
	_, err := c.soapCall(ctx, dev, basicEventPath, basicEventURN, "ChangeFriendlyName", args)
	return err
}

// InsightParams reads the power-metering counters from an Insight
// model. The response is a single pipe-separated value list.
func (c *Client) InsightParams(ctx context.Context, dev Device) (map[string]int, error) {
	body, err := c.soapCall(ctx, dev, insightPath, insightURN, "GetInsightParams", "")
	if err != nil {
		return nil, err
	}
	raw, ok := extractTag(body, "InsightParams")
	if !ok {
		return nil, fmt.Errorf("%w: no InsightParams in response", ErrDeviceUnreachable)
	}

	parts := strings.Split(raw, "|")
	params := make(map[string]int, len(insightFields))
	for i, field := range insightFields {
		if i >= len(parts) {
			break
		}
		if v, err := strconv.Atoi(strings.TrimSpace(parts[i])); err == nil {
			params[field] = v
		}
	}
	return params, nil
}

// soapCall performs one SOAP action against a device service and
// returns the raw response body.
func (c *Client) soapCall(ctx context.Context, dev Device, path, urn, action, args string) (string, error) {
	envelope := `<?xml version="1.0" encoding="utf-8"?>` +
		`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" ` +
		`s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">` +
		`<s:Body>` +
		`<u:` + action + ` xmlns:u="` + urn + `">` + args + `</u:` + action + `>` +
		`</s:Body>` +
		`</s:Envelope>`

	endpoint := fmt.Sprintf("http://%s:%d%s", dev.Host, dev.Port, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(envelope))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", `"`+urn+`#`+action+`"`)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s %s: %v", ErrDeviceUnreachable, action, dev.Key(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return "", fmt.Errorf("%w: reading %s response: %v", ErrDeviceUnreachable, action, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", ErrDeviceUnreachable, action, resp.StatusCode)
	}
	return string(data), nil
}

// extractTag pulls the text content of the first occurrence of an XML
// element. Device firmware emits envelopes too loose for a strict
// decoder, so responses are scanned textually.
func extractTag(body, tag string) (string, bool) {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"
	start := strings.Index(body, open)
	if start < 0 {
		return "", false
	}
	start += len(open)
	end := strings.Index(body[start:], closing)
	if end < 0 {
		return "", false
	}
	return body[start : start+end], true
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
