package util

import (
	"encoding/json"
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

const HA_DISCOVERY_PREFIX = "homeassistant"

type HAAvailability struct {
	Topic               string `json:"topic"`                 // : "room_observer/online"
	PayloadAvailable    string `json:"payload_available"`     // : "online"
	PayloadNotAvailable string `json:"payload_not_available"` // : "offline"
}

type HADeviceSpec struct {
	Name        string   `json:"name"` // : "room_observer"
	Identifiers []string `json:"ids"`  // : ["room_observer"]
}

type HAAdvertisement struct { //nolint:govet // struct layout optimized for JSON field order
	Availability      []HAAvailability `json:"availability"`
	Device            HADeviceSpec     `json:"device"`
	UniqueID          string           `json:"uniq_id"`
	Name              string           `json:"name"`
	StateTopic        string           `json:"state_topic"`
	PayloadOn         string           `json:"payload_on,omitempty"`
	PayloadOff        string           `json:"payload_off,omitempty"`
	DeviceClass       string           `json:"device_class,omitempty"`
	UnitOfMeasurement string           `json:"unit_of_measurement,omitempty"`
	Platform          string           `json:"platform"`
	Qos               int              `json:"qos"`
}

func (ha HAAdvertisement) ToJson() string {
	data, err := json.Marshal(ha)
	if err != nil {
		Logger.Error().Msgf("Error marshalling HAAdvertisement: %v", err)
		return ""
	}
	return string(data)
}

// ConfigTopic is where Home Assistant expects the discovery payload for this entity.
func (ha HAAdvertisement) ConfigTopic(room, object string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", HA_DISCOVERY_PREFIX, ha.Platform, room, object)
}

func baseAdvertisement(name, stateTopic string) HAAdvertisement {
	return HAAdvertisement{
		Name:       name,
		StateTopic: stateTopic,
		Availability: []HAAvailability{
			{
				Topic:               OnlineTopic(),
				PayloadAvailable:    "online",
				PayloadNotAvailable: "offline",
			},
		},
		Qos: 0,
		Device: HADeviceSpec{
			Name:        CONFIG_NAME,
			Identifiers: []string{CONFIG_NAME},
		},
	}
}

// ConstructOccupancyAdvertisement describes the room as an occupancy binary_sensor.
func ConstructOccupancyAdvertisement(room, stateTopic string) HAAdvertisement {
	ha := baseAdvertisement(room, stateTopic)
	ha.UniqueID = "occupancy_sensor-" + room
	ha.PayloadOn = "true"
	ha.PayloadOff = "false"
	ha.DeviceClass = "occupancy"
	ha.Platform = "binary_sensor"
	return ha
}

// ConstructPersonsAdvertisement describes the occupant count as a plain sensor.
func ConstructPersonsAdvertisement(room, stateTopic string) HAAdvertisement {
	ha := baseAdvertisement(room+" persons", stateTopic)
	ha.UniqueID = "persons_sensor-" + room
	ha.UnitOfMeasurement = "persons"
	ha.Platform = "sensor"
	return ha
}

func AdvertiseHA(room string, client MQTT.Client) error {
	ads := map[string]HAAdvertisement{
		"occupancy": ConstructOccupancyAdvertisement(room, OccupiedTopic()),
		"persons":   ConstructPersonsAdvertisement(room, OccupancyTopic()),
	}
	for object, ha := range ads {
		if token := client.Publish(ha.ConfigTopic(room, object), 0, true, ha.ToJson()); token.Wait() && token.Error() != nil {
			return fmt.Errorf("advertise %s: %w", object, token.Error())
		}
	}
	return nil
}
