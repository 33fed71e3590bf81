package mqtt

import (
	"encoding/json"
	"errors"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"testing"
	"time"
)

var errConnectionRefused = errors.New("connection refused")

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

type publishedMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type fakeClient struct {
	connected  bool
	connects   int
	connectErr error
	publishErr error
	published  []publishedMessage
}

func (c *fakeClient) IsConnected() bool      { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool { return c.connected }

func (c *fakeClient) Connect() mqtt.Token {
	c.connects++
	if c.connectErr == nil {
		c.connected = true
	}
	return &fakeToken{err: c.connectErr}
}

func (c *fakeClient) Disconnect(quiesce uint) { c.connected = false }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if c.publishErr != nil {
		return &fakeToken{err: c.publishErr}
	}
	c.published = append(c.published, publishedMessage{
		topic:    topic,
		qos:      qos,
		retained: retained,
		payload:  payload.(string),
	})
	return &fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{}
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token { return &fakeToken{} }

func (c *fakeClient) AddRoute(topic string, callback mqtt.MessageHandler) {}

func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

func testOptions() Options {
	return Options{
		Host:       "broker.local",
		Port:       1883,
		ClientId:   "inkframe",
		SensorName: "PiSugar Battery",
		UniqueId:   "pisugar_battery",
		StateTopic: "homeassistant/sensor/pisugar_battery/state",
		Device: Device{
			Identifiers:  []string{"pisugar_battery"},
			Name:         "PiSugar UPS",
			Model:        "PiSugar3",
			Manufacturer: "PiSugar",
		},
	}
}

func TestPublishBattery(t *testing.T) {
	client := &fakeClient{}
	publisher := &Publisher{opts: testOptions(), client: client}

	if err := publisher.PublishBattery(84); err != nil {
		t.Fatalf("publish battery: %v", err)
	}
	if err := publisher.PublishBattery(83); err != nil {
		t.Fatalf("publish battery: %v", err)
	}

	if client.connects != 1 {
		t.Errorf("expected a single connect, got %d", client.connects)
	}
	if len(client.published) != 3 {
		t.Fatalf("expected discovery plus two states, got %d messages", len(client.published))
	}

	discovery := client.published[0]
	if discovery.topic != "homeassistant/sensor/pisugar_battery/config" {
		t.Errorf("unexpected discovery topic %s", discovery.topic)
	}
	if !discovery.retained || discovery.qos != 1 {
		t.Errorf("discovery must be retained at qos 1, got retained=%v qos=%d", discovery.retained, discovery.qos)
	}

	var payload DiscoveryPayload
	if err := json.Unmarshal([]byte(discovery.payload), &payload); err != nil {
		t.Fatalf("discovery payload: %v", err)
	}
	if payload.Name != "PiSugar Battery" ||
		payload.StateTopic != "homeassistant/sensor/pisugar_battery/state" ||
		payload.UnitOfMeasurement != "%" ||
		payload.DeviceClass != "battery" ||
		payload.UniqueId != "pisugar_battery" {
		t.Errorf("unexpected discovery payload %+v", payload)
	}
	if len(payload.Device.Identifiers) != 1 || payload.Device.Identifiers[0] != "pisugar_battery" {
		t.Errorf("unexpected device identifiers %v", payload.Device.Identifiers)
	}

	for i, want := range []string{"84", "83"} {
		state := client.published[i+1]
		if state.topic != "homeassistant/sensor/pisugar_battery/state" {
			t.Errorf("unexpected state topic %s", state.topic)
		}
		if state.payload != want {
			t.Errorf("unexpected state payload %q, want %q", state.payload, want)
		}
		if !state.retained {
			t.Error("state must be retained")
		}
	}
}

func TestPublishBatteryConnectFailure(t *testing.T) {
	client := &fakeClient{connectErr: errConnectionRefused}
	publisher := &Publisher{opts: testOptions(), client: client}

	if err := publisher.PublishBattery(84); err == nil {
		t.Fatal("expected an error when the broker is unreachable")
	}
	if len(client.published) != 0 {
		t.Errorf("nothing should be published, got %v", client.published)
	}
}

// A discovery that could not be delivered goes out again on the next call,
// still ahead of the state message.
func TestDiscoveryRetriedAfterFailure(t *testing.T) {
	client := &fakeClient{publishErr: errConnectionRefused}
	publisher := &Publisher{opts: testOptions(), client: client}

	if err := publisher.PublishBattery(84); err == nil {
		t.Fatal("expected the first publish to fail")
	}

	client.publishErr = nil
	if err := publisher.PublishBattery(84); err != nil {
		t.Fatalf("publish battery: %v", err)
	}

	if len(client.published) != 2 {
		t.Fatalf("expected discovery plus state, got %d messages", len(client.published))
	}
	if client.published[0].topic != "homeassistant/sensor/pisugar_battery/config" {
		t.Errorf("discovery must precede the state, got %s first", client.published[0].topic)
	}
}

func TestClose(t *testing.T) {
	client := &fakeClient{connected: true}
	publisher := &Publisher{opts: testOptions(), client: client}

	publisher.Close()

	if client.connected {
		t.Error("expected a disconnect")
	}
}
