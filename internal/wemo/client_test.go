package wemo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

// deviceFromServer derives a Device addressing the test server.
func deviceFromServer(t *testing.T, srv *httptest.Server) Device {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return Device{Serial: "TESTSERIAL01", Name: "Lamp", Model: "Socket", Host: u.Hostname(), Port: port}
}

func TestParseSearchResponse(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "typical response",
			data: "HTTP/1.1 200 OK\r\nCACHE-CONTROL: max-age=86400\r\nLOCATION: http://192.168.1.20:49153/setup.xml\r\nST: urn:Belkin:service:basicevent:1\r\n\r\n",
			want: "http://192.168.1.20:49153/setup.xml",
		},
		{
			name: "lowercase header",
			data: "HTTP/1.1 200 OK\r\nlocation: http://10.0.0.5:49154/setup.xml\r\n\r\n",
			want: "http://10.0.0.5:49154/setup.xml",
		},
		{
			name: "no location",
			data: "HTTP/1.1 200 OK\r\nST: upnp:rootdevice\r\n\r\n",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseSearchResponse([]byte(tt.data)); got != tt.want {
				t.Errorf("parseSearchResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/setup.xml" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, `<?xml version="1.0"?>
<root xmlns="urn:Belkin:device-1-0">
  <device>
    <deviceType>urn:Belkin:device:controllee:1</deviceType>
    <friendlyName>Desk Lamp</friendlyName>
    <modelName>Socket</modelName>
    <serialNumber>221548K01006A5</serialNumber>
  </device>
</root>`)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	dev, err := c.describe(context.Background(), srv.URL+"/setup.xml")
	if err != nil {
		t.Fatalf("describe() error = %v", err)
	}

	if dev.Name != "Desk Lamp" || dev.Model != "Socket" || dev.Serial != "221548K01006A5" {
		t.Errorf("describe() = %+v", dev)
	}
	if dev.Key() != "221548K01006A5" {
		t.Errorf("Key() = %q, want serial", dev.Key())
	}
}

func TestGetBinaryState(t *testing.T) {
	var gotAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.Header.Get("SOAPACTION")
		io.WriteString(w, `<s:Envelope><s:Body><u:GetBinaryStateResponse><BinaryState>1</BinaryState></u:GetBinaryStateResponse></s:Body></s:Envelope>`)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	state, err := c.GetBinaryState(context.Background(), deviceFromServer(t, srv))
	if err != nil {
		t.Fatalf("GetBinaryState() error = %v", err)
	}
	if state != 1 {
		t.Errorf("state = %d, want 1", state)
	}
	if want := `"urn:Belkin:service:basicevent:1#GetBinaryState"`; gotAction != want {
		t.Errorf("SOAPACTION = %q, want %q", gotAction, want)
	}
}

func TestGetBinaryState_MeteringSuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<BinaryState>8|1536000000|0|0</BinaryState>`)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	state, err := c.GetBinaryState(context.Background(), deviceFromServer(t, srv))
	if err != nil {
		t.Fatalf("GetBinaryState() error = %v", err)
	}
	if state != 8 {
		t.Errorf("state = %d, want 8", state)
	}
}

func TestSetBinaryState(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		io.WriteString(w, `<BinaryState>1</BinaryState>`)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	if err := c.SetBinaryState(context.Background(), deviceFromServer(t, srv), 1); err != nil {
		t.Fatalf("SetBinaryState() error = %v", err)
	}
	if !strings.Contains(gotBody, "<BinaryState>1</BinaryState>") {
		t.Errorf("request body missing BinaryState: %s", gotBody)
	}
	if !strings.Contains(gotBody, "u:SetBinaryState") {
		t.Errorf("request body missing action element: %s", gotBody)
	}
}

func TestSetFriendlyName_EscapesXML(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	if err := c.SetFriendlyName(context.Background(), deviceFromServer(t, srv), "Bed & Breakfast"); err != nil {
		t.Fatalf("SetFriendlyName() error = %v", err)
	}
	if !strings.Contains(gotBody, "Bed &amp; Breakfast") {
		t.Errorf("name not escaped: %s", gotBody)
	}
}

func TestInsightParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<InsightParams>8|1536000000|300|1200|86400|1209600|10|1250|4500|90000</InsightParams>`)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	params, err := c.InsightParams(context.Background(), deviceFromServer(t, srv))
	if err != nil {
		t.Fatalf("InsightParams() error = %v", err)
	}

	if params["state"] != 8 {
		t.Errorf("state = %d, want 8", params["state"])
	}
	if params["currentpower"] != 1250 {
		t.Errorf("currentpower = %d, want 1250", params["currentpower"])
	}
	if params["totalmw"] != 90000 {
		t.Errorf("totalmw = %d, want 90000", params["totalmw"])
	}
}

func TestSoapCall_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "fault", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(2 * time.Second)
	if _, err := c.GetBinaryState(context.Background(), deviceFromServer(t, srv)); err == nil {
		t.Fatal("expected error for SOAP fault response")
	}
}

func TestExtractTag(t *testing.T) {
	body := `<a><BinaryState>1</BinaryState></a>`
	if v, ok := extractTag(body, "BinaryState"); !ok || v != "1" {
		t.Errorf("extractTag() = %q, %v", v, ok)
	}
	if _, ok := extractTag(body, "Missing"); ok {
		t.Error("extractTag() found a missing tag")
	}
	if _, ok := extractTag("<Unclosed>1", "Unclosed"); ok {
		t.Error("extractTag() accepted an unclosed tag")
	}
}
