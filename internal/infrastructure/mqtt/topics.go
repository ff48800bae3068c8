package mqtt

import "fmt"

// Topic layout: lumacue/{category}/{subject}. Status topics are published
// retained so new subscribers see the current state immediately.
const (
	// TopicPrefix is the base for all controller topics.
	TopicPrefix = "lumacue"

	// TopicPrefixStatus is the base for retained state topics.
	TopicPrefixStatus = "lumacue/status"
)

// Topics provides builders for controller MQTT topics, keeping topic
// naming consistent across the codebase.
type Topics struct{}

// SystemStatus returns the topic carrying online/offline presence.
// This is also the Last Will topic.
func (Topics) SystemStatus() string {
	return TopicPrefixStatus + "/system"
}

// Playback returns the topic carrying playback status updates.
func (Topics) Playback() string {
	return TopicPrefixStatus + "/playback"
}

// Trigger returns the topic carrying playlist advance notifications.
func (Topics) Trigger() string {
	return fmt.Sprintf("%s/event/trigger", TopicPrefix)
}
