package util

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "ROOM_OBSERVER"

const CONFIG_NAME = "room_observer"

var Config = viper.New()

var config_listeners []func()

// RegisterNewConfigListener adds a callback run by OnNewConfig. The same func is only registered once.
func RegisterNewConfigListener(new_listener func()) {
	for _, listener := range config_listeners {
		if reflect.ValueOf(new_listener).Pointer() == reflect.ValueOf(listener).Pointer() {
			Logger.Warn().Msg("config listener already registered")
			return
		}
	}
	config_listeners = append(config_listeners, new_listener)
}

func OnNewConfig() {
	for _, listener := range config_listeners {
		listener()
	}
}

func SetDefaults() {
	Config.SetDefault("log_level", "info")

	Config.SetDefault("room.name", "room")
	Config.SetDefault("room.sequence", []int{1, 0, 5, 2})

	Config.SetDefault("mqtt.enabled", false)
	Config.SetDefault("mqtt.broker_uri", "tcp://mqtt:1883")
	Config.SetDefault("mqtt.id_base", CONFIG_NAME)
	Config.SetDefault("mqtt.username", "")
	Config.SetDefault("mqtt.password", "")
	Config.SetDefault("mqtt.cleansess", false)
	Config.SetDefault("mqtt.occupancy_topic", "")
	Config.SetDefault("mqtt.occupied_topic", "")
	Config.SetDefault("mqtt.persons_topic", "")
	Config.SetDefault("mqtt.ha_advertise", true)

	Config.SetDefault("monitor.enabled", false)
	Config.SetDefault("monitor.port", 8080)
}

func SetupConfig() {
	Config.SetEnvPrefix(ENV_PREFIX)
	Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	SetDefaults()

	// config file
	Config.SetConfigName(CONFIG_NAME)
	Config.AddConfigPath("/")
	Config.AddConfigPath("./")
	Config.AddConfigPath("./config")
	Config.AddConfigPath("/etc")

	if err := Config.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			Logger.Debug().Msg("no config file found, using defaults")
		} else {
			Logger.Error().Msgf("unable to read config file: %v", fmt.Errorf("%v", err))
		}
	}

	// environment variables
	Config.AutomaticEnv()

	// watch for changes
	if Config.ConfigFileUsed() != "" {
		Config.WatchConfig()
		Config.OnConfigChange(func(e fsnotify.Event) {
			Logger.Info().Msgf("Config file changed: %v", e.Name)
			Logger.Debug().Msgf("Config Additional Info: %v", e.String())
			OnNewConfig()
		})
	}
}

func RoomName() string {
	return Config.GetString("room.name")
}

func topicOrDefault(key, suffix string) string {
	if topic := Config.GetString(key); topic != "" {
		return topic
	}
	return fmt.Sprintf("%s/%s/%s", CONFIG_NAME, RoomName(), suffix)
}

func OccupancyTopic() string {
	return topicOrDefault("mqtt.occupancy_topic", "persons")
}

func OccupiedTopic() string {
	return topicOrDefault("mqtt.occupied_topic", "occupied")
}

func PersonsTopic() string {
	return topicOrDefault("mqtt.persons_topic", "set")
}

func OnlineTopic() string {
	return CONFIG_NAME + "/online"
}
