package mqtt

import "fmt"

// Topic prefixes for the retimer core topic hierarchy.
//
// Lifecycle topics use the flat scheme: retimer/event/{handle_name}
const (
	// TopicPrefix is the base for all retimer core topics.
	TopicPrefix = "retimer"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "retimer/system"
)

// Topics provides builders for retimer core MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.Event("retimer0")
//	// Returns: "retimer/event/retimer0"
type Topics struct{}

// Event returns the topic for lifecycle events of a single handle.
//
// Example: retimer/event/retimer0
func (Topics) Event(handleName string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, handleName)
}

// EventWildcard returns the subscription pattern matching all lifecycle events.
//
// Example: retimer/event/+
func (Topics) EventWildcard() string {
	return TopicPrefix + "/event/+"
}

// Occupancy returns the topic carrying the current live handle count.
// Published retained so new subscribers see the latest count immediately.
//
// Example: retimer/registry/occupancy
func (Topics) Occupancy() string {
	return TopicPrefix + "/registry/occupancy"
}

// SystemStatus returns the topic for service online/offline status.
// Used for the LWT and graceful shutdown announcements.
//
// Example: retimer/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
