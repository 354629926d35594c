package mqtt

import "fmt"

// Topic prefixes.
const (
	// TopicPrefix is the root of every controller topic.
	TopicPrefix = "solarpool"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = TopicPrefix + "/system"

	// TopicPrefixState is the base for retained device state topics.
	TopicPrefixState = TopicPrefix + "/state"
)

// Topics provides builders for controller MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.SystemSecurity() // "solarpool/system/security"
type Topics struct{}

// SystemStatus returns the retained online/offline status topic. The broker
// publishes the Last Will here on an unexpected disconnect.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// SystemSecurity returns the topic carrying security audit events.
func (Topics) SystemSecurity() string {
	return TopicPrefixSystem + "/security"
}

// State returns the retained state topic for one controller component.
//
// Example: solarpool/state/relay
func (Topics) State(component string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixState, component)
}

// AllSystem returns a wildcard matching every system topic.
func (Topics) AllSystem() string {
	return TopicPrefixSystem + "/#"
}
