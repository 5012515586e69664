package wemo

// Device is one discovered LAN device. It is a plain record: control
// traffic is addressed with Host/Port at call time, no connection is
// held open.
type Device struct {
	Serial string
	Name   string
	Model  string
	Host   string
	Port   int
}

// Key returns the registry key: serial number when the device reports
// one, friendly name otherwise.
func (d Device) Key() string {
	if d.Serial != "" {
		return d.Serial
	}
	return d.Name
}

// Info is the API representation of a device, state included.
//
// State is nil when the device could not be read (powered off between
// discovery and the request, for example); the entry is still listed.
// InsightParams is populated for power-metering models only.
type Info struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Model         string         `json:"model,omitempty"`
	Host          string         `json:"host,omitempty"`
	Port          int            `json:"port,omitempty"`
	State         *int           `json:"state"`
	InsightParams map[string]int `json:"insight_params,omitempty"`
}
