package mqtt

import (
	"fmt"
	"strconv"
)

// Topic prefixes for the inventory MQTT tree.
const (
	// TopicPrefix is the root of every inventory topic.
	TopicPrefix = "inventory"

	// TopicPrefixDevice is the base for device lifecycle events.
	TopicPrefixDevice = TopicPrefix + "/device"

	// TopicPrefixSystem is the base for service status topics.
	TopicPrefixSystem = TopicPrefix + "/system"
)

// Topics provides builders for inventory MQTT topics.
//
//	topics := mqtt.Topics{}
//	topic := topics.DeviceEvent("created", 42)
//	// Returns: "inventory/device/created/42"
type Topics struct{}

// DeviceEvent returns the topic for a device lifecycle event.
//
// Example: inventory/device/updated/42
func (Topics) DeviceEvent(event string, deviceID int64) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixDevice, event, strconv.FormatInt(deviceID, 10))
}

// SystemStatus returns the service status topic used for online, offline
// and LWT messages.
//
// Example: inventory/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
