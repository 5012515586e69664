// Package wemo implements the local (UPnP) device family.
//
// Discovery broadcasts an SSDP M-SEARCH on the LAN and collects
// responders for a bounded window; each responder's setup.xml yields
// its identity (friendly name, model, serial). Control and state reads
// are SOAP calls against the device's basicevent service, plus a
// best-effort insight service read for power-metering models.
//
// Devices are keyed by serial number, falling back to friendly name
// for units that do not report one. The registry is volatile: restart
// the process (or POST /discover) to repopulate it.
package wemo
