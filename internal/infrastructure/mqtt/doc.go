// Package mqtt publishes controller status to an MQTT broker.
//
// The client wraps paho.mqtt.golang with connection management, auto
// reconnect with exponential backoff, and a Last Will message so other
// systems can tell a crash apart from a graceful shutdown. Playback
// status changes are published retained on lumacue/status/playback, so
// late subscribers immediately see the current state.
//
// The whole package is optional: when mqtt.enabled is false in the
// config the rest of the controller runs without it.
package mqtt
