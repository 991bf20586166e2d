package util

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidModel = errors.New("invalid model")

type Model struct {
	LogLevel string       `mapstructure:"log_level"`
	Room     RoomModel    `mapstructure:"room"`
	MQTT     MQTTModel    `mapstructure:"mqtt"`
	Monitor  MonitorModel `mapstructure:"monitor"`
}

type RoomModel struct {
	Name     string `mapstructure:"name"`
	Sequence []int  `mapstructure:"sequence"`
}

type MQTTModel struct { //nolint:govet // grouped by meaning
	Enabled         bool   `mapstructure:"enabled"`
	Broker_URI      string `mapstructure:"broker_uri"`
	Id_base         string `mapstructure:"id_base"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Cleansess       bool   `mapstructure:"cleansess"`
	Occupancy_topic string `mapstructure:"occupancy_topic"`
	Occupied_topic  string `mapstructure:"occupied_topic"`
	Persons_topic   string `mapstructure:"persons_topic"`
	HA_advertise    bool   `mapstructure:"ha_advertise"`
}

type MonitorModel struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// BuildModel decodes the current configuration, defaults included.
func BuildModel() (*Model, error) {
	var m Model
	if err := Config.Unmarshal(&m); err != nil {
		Logger.Error().Msgf("error unmarshaling model: %v", err)
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m Model) Validate() error {
	if m.Room.Name == "" {
		return fmt.Errorf("%w: room.name is empty", ErrInvalidModel)
	}
	if strings.ContainsAny(m.Room.Name, "/+#") {
		return fmt.Errorf("%w: room.name %q contains an MQTT topic character", ErrInvalidModel, m.Room.Name)
	}
	if m.Monitor.Enabled && (m.Monitor.Port < 1 || m.Monitor.Port > 65535) {
		return fmt.Errorf("%w: monitor.port %d out of range", ErrInvalidModel, m.Monitor.Port)
	}
	if m.MQTT.Enabled && m.MQTT.Broker_URI == "" {
		return fmt.Errorf("%w: mqtt.broker_uri is empty", ErrInvalidModel)
	}
	return nil
}
