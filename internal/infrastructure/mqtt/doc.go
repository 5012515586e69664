// Package mqtt provides the MQTT client for the Govee event feed.
//
// The Govee platform pushes device events (button presses, sensor
// triggers) over an MQTT broker at mqtt.openapi.govee.com:8883. This
// package wraps paho.mqtt.golang with the pieces the controller needs:
//
//   - TLS connection with API-key authentication
//   - Auto-reconnect with exponential backoff
//   - Subscription restore on reconnect
//   - Panic-safe message handlers
//
// The controller is a pure consumer on this broker; there is no
// publish path.
//
// # Usage
//
//	client, err := mqtt.Connect(mqtt.Config{
//	    Host: "mqtt.openapi.govee.com", Port: 8883, TLS: true,
//	    ClientID: "wemo-controller-...", Username: apiKey, Password: apiKey,
//	})
//	if err != nil { ... }
//	defer client.Close()
//
//	err = client.Subscribe("GA/"+apiKey, 1, func(topic string, payload []byte) error {
//	    // decode and rebroadcast
//	    return nil
//	})
package mqtt
