package util

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// Mock MQTT client for testing
type MockMQTTClient struct {
	publishCalls   []PublishCall
	subscribeCalls []SubscribeCall
	publishErr     error
	connected      bool
	mu             sync.RWMutex
}

type PublishCall struct {
	Payload  interface{}
	Topic    string
	QoS      byte
	Retained bool
}

type SubscribeCall struct {
	Handler MQTT.MessageHandler
	Topic   string
	QoS     byte
}

func (m *MockMQTTClient) IsConnected() bool      { return m.connected }
func (m *MockMQTTClient) IsConnectionOpen() bool { return m.connected }
func (m *MockMQTTClient) Connect() MQTT.Token {
	m.connected = true
	return &MockToken{}
}
func (m *MockMQTTClient) Disconnect(quiesce uint) { m.connected = false }

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishCalls = append(m.publishCalls, PublishCall{
		Topic:    topic,
		QoS:      qos,
		Retained: retained,
		Payload:  payload,
	})
	return &MockToken{err: m.publishErr}
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback MQTT.MessageHandler) MQTT.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeCalls = append(m.subscribeCalls, SubscribeCall{
		Topic:   topic,
		QoS:     qos,
		Handler: callback,
	})
	return &MockToken{}
}

func (m *MockMQTTClient) SubscribeMultiple(filters map[string]byte, callback MQTT.MessageHandler) MQTT.Token {
	return &MockToken{}
}
func (m *MockMQTTClient) Unsubscribe(topics ...string) MQTT.Token             { return &MockToken{} }
func (m *MockMQTTClient) AddRoute(topic string, callback MQTT.MessageHandler) {}
func (m *MockMQTTClient) OptionsReader() MQTT.ClientOptionsReader             { return MQTT.ClientOptionsReader{} }

// Mock MQTT token
type MockToken struct {
	err error
}

func (m *MockToken) Wait() bool                     { return true }
func (m *MockToken) WaitTimeout(time.Duration) bool { return true }
func (m *MockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (m *MockToken) Error() error { return m.err }

// Mock MQTT message
type MockMessage struct {
	topic   string
	payload []byte
}

func (m *MockMessage) Duplicate() bool   { return false }
func (m *MockMessage) Qos() byte         { return 0 }
func (m *MockMessage) Retained() bool    { return false }
func (m *MockMessage) Topic() string     { return m.topic }
func (m *MockMessage) MessageID() uint16 { return 0 }
func (m *MockMessage) Payload() []byte   { return m.payload }
func (m *MockMessage) Ack()              {}

func TestRegisterMQTTConnectHook(t *testing.T) {
	connectHandlers = make(map[string]func(MQTT.Client))

	called := false
	RegisterMQTTConnectHook("test_handler", func(client MQTT.Client) {
		called = true
	})

	if len(connectHandlers) != 1 {
		t.Errorf("Expected 1 connect handler, got %d", len(connectHandlers))
	}

	connectHandlers["test_handler"](&MockMQTTClient{})
	if !called {
		t.Error("Connect handler should have been called")
	}

	// Replacing under the same name keeps a single hook
	RegisterMQTTConnectHook("test_handler", func(client MQTT.Client) {})
	if len(connectHandlers) != 1 {
		t.Errorf("Expected 1 connect handler after replace, got %d", len(connectHandlers))
	}

	RegisterMQTTConnectHook("test_handler", nil)
	if len(connectHandlers) != 0 {
		t.Errorf("Expected 0 connect handlers after removal, got %d", len(connectHandlers))
	}
}

func TestRegisterMQTTSubscription(t *testing.T) {
	subscriptions = make(map[string]MQTT.MessageHandler)

	RegisterMQTTSubscription("test/topic", func(client MQTT.Client, message MQTT.Message) {})

	if len(subscriptions) != 1 {
		t.Errorf("Expected 1 subscription, got %d", len(subscriptions))
	}
	if subscriptions["test/topic"] == nil {
		t.Error("Subscription handler should not be nil")
	}

	RegisterMQTTSubscription("test/topic", nil)
	if len(subscriptions) != 0 {
		t.Errorf("Expected 0 subscriptions after removal, got %d", len(subscriptions))
	}
}

func TestSubscribe(t *testing.T) {
	mockClient := &MockMQTTClient{}

	subscriptions = make(map[string]MQTT.MessageHandler)
	testHandler := func(client MQTT.Client, message MQTT.Message) {}
	subscriptions["test/topic1"] = testHandler
	subscriptions["test/topic2"] = testHandler

	subscribe(mockClient)

	if len(mockClient.subscribeCalls) != 2 {
		t.Errorf("Expected 2 subscribe calls, got %d", len(mockClient.subscribeCalls))
	}

	topics := make(map[string]bool)
	for _, call := range mockClient.subscribeCalls {
		topics[call.Topic] = true
	}
	if !topics["test/topic1"] || !topics["test/topic2"] {
		t.Error("Expected both test topics to be subscribed")
	}
}

func TestConnectHandler(t *testing.T) {
	mockClient := &MockMQTTClient{}
	subscriptions = make(map[string]MQTT.MessageHandler)
	subscriptions["room_observer/room/set"] = func(client MQTT.Client, message MQTT.Message) {}
	connectHandlers = make(map[string]func(MQTT.Client))

	handlerCalled := false
	connectHandlers["test"] = func(client MQTT.Client) {
		handlerCalled = true
	}

	connectHandler(mockClient)

	if len(mockClient.publishCalls) < 1 {
		t.Fatal("Connect handler should publish online message")
	}
	call := mockClient.publishCalls[0]
	if call.Topic != OnlineTopic() || call.Payload != "online" {
		t.Errorf("Expected online message to %s, got %v to %s", OnlineTopic(), call.Payload, call.Topic)
	}
	if len(mockClient.subscribeCalls) != 1 {
		t.Errorf("Expected subscriptions to be applied on connect, got %d", len(mockClient.subscribeCalls))
	}
	if !handlerCalled {
		t.Error("Custom connect handler should have been called")
	}
}

func TestPublish_DuringClientSwap(t *testing.T) {
	mockClient := &MockMQTTClient{}
	defer setClient(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			if err := Publish("a/b", i); err != nil && !errors.Is(err, ErrNotConnected) {
				t.Errorf("Publish returned %v", err)
				return
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		setClient(nil)
		setClient(mockClient)
	}
	<-done
}

func TestMqttDisconnect(t *testing.T) {
	mockClient := &MockMQTTClient{connected: true}
	setClient(mockClient)

	MqttDisconnect()

	if currentClient() != nil {
		t.Error("Client should be nil after MqttDisconnect")
	}
	if mockClient.connected {
		t.Error("previous client was not disconnected")
	}

	// no client is a no-op
	MqttDisconnect()
}

func TestPublish(t *testing.T) {
	t.Run("No client", func(t *testing.T) {
		Client = nil
		if err := Publish("a/b", "1"); !errors.Is(err, ErrNotConnected) {
			t.Errorf("Publish without client = %v, expected ErrNotConnected", err)
		}
	})

	t.Run("Delivers", func(t *testing.T) {
		mockClient := &MockMQTTClient{}
		Client = mockClient
		defer func() { Client = nil }()

		if err := Publish("a/b", "5"); err != nil {
			t.Fatalf("Publish returned error: %v", err)
		}
		if len(mockClient.publishCalls) != 1 {
			t.Fatalf("Expected 1 publish call, got %d", len(mockClient.publishCalls))
		}
		call := mockClient.publishCalls[0]
		if call.Topic != "a/b" || call.Payload != "5" || call.QoS != 0 || call.Retained {
			t.Errorf("unexpected publish call %+v", call)
		}
	})

	t.Run("Token error", func(t *testing.T) {
		brokerErr := errors.New("broker gone")
		Client = &MockMQTTClient{publishErr: brokerErr}
		defer func() { Client = nil }()

		err := Publish("a/b", "5")
		if !errors.Is(err, brokerErr) {
			t.Errorf("Publish = %v, expected wrapped broker error", err)
		}
	})
}

func TestClientID(t *testing.T) {
	resetConfig(t)
	Config.Set("mqtt.id_base", "test_client")

	first := clientID()
	second := clientID()

	if !strings.HasPrefix(first, "test_client_") {
		t.Errorf("clientID() = %s, expected test_client_ prefix", first)
	}
	if len(first) != len("test_client_")+8 {
		t.Errorf("clientID() = %s, expected an 8 character suffix", first)
	}
	if first == second {
		t.Error("clientID should differ between calls")
	}
}

func TestMqttOptions(t *testing.T) {
	resetConfig(t)
	Config.Set("mqtt.broker_uri", "tcp://test.mqtt.broker:1883")
	Config.Set("mqtt.username", "test_user")
	Config.Set("mqtt.cleansess", true)

	opts := mqttOptions()

	if len(opts.Servers) != 1 || opts.Servers[0].Host != "test.mqtt.broker:1883" {
		t.Errorf("Servers = %v, expected test.mqtt.broker:1883", opts.Servers)
	}
	if opts.Username != "test_user" {
		t.Errorf("Username = %s, expected test_user", opts.Username)
	}
	if !opts.CleanSession {
		t.Error("CleanSession should follow mqtt.cleansess")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect should be enabled")
	}
	if !opts.WillEnabled || opts.WillTopic != OnlineTopic() || string(opts.WillPayload) != "offline" {
		t.Errorf("Will = %v %s %s, expected offline on %s", opts.WillEnabled, opts.WillTopic, opts.WillPayload, OnlineTopic())
	}
}

func TestReceiverFunction(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("receiver function should not panic: %v", r)
		}
	}()

	receiver(&MockMQTTClient{}, &MockMessage{topic: "unknown/topic", payload: []byte("test payload")})
}
