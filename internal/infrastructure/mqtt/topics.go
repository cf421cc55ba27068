package mqtt

import (
	"fmt"
	"strings"
)

// Topic builders for the two topic families the gateway publishes to.
//
// State topics carry one aggregated JSON object per device:
//
//	<base_topic>/<device>/state
//
// Discovery topics carry one retained metadata object per entity, following
// the Home Assistant discovery convention:
//
//	<discovery_prefix>/<component>/<device>/<entity>/config
//
// All topic segments are normalised to lowercase with underscores so that
// device and entity display names ("Garage Door") produce stable topics.

// StateTopic returns the per-device state topic.
//
// Example: lora2mqtt/garage/state
func StateTopic(baseTopic, device string) string {
	return fmt.Sprintf("%s/%s/state", baseTopic, NormalizeSegment(device))
}

// DiscoveryTopic returns the per-entity discovery announcement topic.
//
// Example: homeassistant/cover/garage/door/config
func DiscoveryTopic(prefix, component, device, entity string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config",
		prefix, component, NormalizeSegment(device), NormalizeSegment(entity))
}

// StatusTopic returns the gateway availability topic used for the online
// status message and the Last Will and Testament.
//
// Example: lora2mqtt/status
func StatusTopic(baseTopic string) string {
	return fmt.Sprintf("%s/status", baseTopic)
}

// NormalizeSegment converts a display name to a topic-safe segment:
// lowercased, with spaces and topic separators replaced by underscores.
func NormalizeSegment(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	replacer := strings.NewReplacer(" ", "_", "/", "_", "+", "_", "#", "_")
	return replacer.Replace(s)
}
