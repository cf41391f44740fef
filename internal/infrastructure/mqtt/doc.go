// Package mqtt provides MQTT client connectivity for the retimer core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing lifecycle events and occupancy state with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The registry announces handle lifecycle transitions over MQTT so that
// external monitors can track which retimers are live without polling
// the HTTP API. The core only publishes; it holds no subscriptions.
//
//	retimer core → MQTT Broker → monitors / dashboards
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are read from config or RETIMER_MQTT_* environment variables
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Event("retimer0")
//	err = client.Publish(topic, payload, 1, false)
package mqtt
