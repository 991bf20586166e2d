package util

import (
	"errors"
	"fmt"
	"sync"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

var ErrNotConnected = errors.New("mqtt client not initialized")

// Client is the shared broker connection. Read it with currentClient and
// replace it with setClient once other goroutines may be publishing.
var Client MQTT.Client

var (
	mqttMu          sync.Mutex
	subscriptions   map[string]MQTT.MessageHandler
	connectHandlers map[string]func(MQTT.Client)
)

var connectHandler MQTT.OnConnectHandler = func(client MQTT.Client) {
	Logger.Info().Msg("Connected")
	subscribe(client)
	client.Publish(OnlineTopic(), 0, false, "online").Wait()
	mqttMu.Lock()
	hooks := make([]func(MQTT.Client), 0, len(connectHandlers))
	for _, handler := range connectHandlers {
		hooks = append(hooks, handler)
	}
	mqttMu.Unlock()
	for _, handler := range hooks {
		handler(client)
	}
}

// RegisterMQTTConnectHook runs handler on every (re)connect. A nil handler removes the hook.
func RegisterMQTTConnectHook(name string, handler func(MQTT.Client)) {
	mqttMu.Lock()
	defer mqttMu.Unlock()
	if connectHandlers == nil {
		connectHandlers = make(map[string]func(client MQTT.Client))
	}
	if handler == nil {
		delete(connectHandlers, name)
	} else {
		connectHandlers[name] = handler
	}
}

func subscribe(client MQTT.Client) {
	mqttMu.Lock()
	defer mqttMu.Unlock()
	for topic, handler := range subscriptions {
		if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			Logger.Error().Msgf("Error Subscribing to %s: %v", topic, token.Error())
		}
	}
}

// RegisterMQTTSubscription records a topic handler; subscriptions are (re)applied on connect.
func RegisterMQTTSubscription(topic string, handler MQTT.MessageHandler) {
	mqttMu.Lock()
	defer mqttMu.Unlock()
	if subscriptions == nil {
		subscriptions = make(map[string]MQTT.MessageHandler)
	}
	if handler == nil {
		delete(subscriptions, topic)
	} else {
		subscriptions[topic] = handler
	}
}

func currentClient() MQTT.Client {
	mqttMu.Lock()
	defer mqttMu.Unlock()
	return Client
}

// setClient swaps in c and returns the client it replaced.
func setClient(c MQTT.Client) MQTT.Client {
	mqttMu.Lock()
	defer mqttMu.Unlock()
	previous := Client
	Client = c
	return previous
}

// Publish sends payload on topic at qos 0 and waits for the token.
func Publish(topic string, payload interface{}) error {
	client := currentClient()
	if client == nil {
		return ErrNotConnected
	}
	if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

func receiver(client MQTT.Client, message MQTT.Message) {
	Logger.Warn().Msgf("Received message on %v but no handler", message.Topic())
}

var connectLostHandler MQTT.ConnectionLostHandler = func(client MQTT.Client, err error) {
	Logger.Info().Msgf("Connect lost: %v", err)
}

func clientID() string {
	return Config.GetString("mqtt.id_base") + "_" + uuid.NewString()[:8]
}

func mqttOptions() *MQTT.ClientOptions {
	opts := MQTT.NewClientOptions()
	opts.AddBroker(Config.GetString("mqtt.broker_uri"))
	opts.SetClientID(clientID())
	opts.SetUsername(Config.GetString("mqtt.username"))
	opts.SetPassword(Config.GetString("mqtt.password"))
	opts.SetCleanSession(Config.GetBool("mqtt.cleansess"))
	opts.SetAutoReconnect(true)
	opts.SetWill(OnlineTopic(), "offline", 0, false)
	opts.OnConnectionLost = connectLostHandler
	opts.OnConnect = connectHandler
	opts.SetDefaultPublishHandler(receiver)
	return opts
}

// MqttInit (re)creates Client from config and connects it.
func MqttInit() error {
	client := MQTT.NewClient(mqttOptions())
	if previous := setClient(client); previous != nil {
		Logger.Debug().Msg("Client exists - destroying")
		if previous.IsConnected() {
			previous.Disconnect(1000)
		}
	}

	// connect outside the lock: the connect handler takes it to subscribe
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect %s: %w", Config.GetString("mqtt.broker_uri"), token.Error())
	}
	return nil
}

// MqttDisconnect closes the shared client, if any.
func MqttDisconnect() {
	if previous := setClient(nil); previous != nil && previous.IsConnected() {
		previous.Disconnect(1000)
	}
}
