// Package mqtt publishes the battery level to a broker, announcing the
// sensor to home assistant before the first state message.
package mqtt

import (
	"encoding/json"
	"fmt"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"strconv"
	"time"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

// Options carries the mqtt section of the param file.
type Options struct {
	Host       string
	Port       int64
	ClientId   string
	Username   string
	Password   string
	SensorName string
	UniqueId   string
	StateTopic string
	Device     Device
}

// Publisher owns the broker connection. It connects on the first publish,
// so a frame that never reports battery never dials the broker.
type Publisher struct {
	opts          Options
	client        mqtt.Client
	discoverySent bool
}

func NewPublisher(opts Options) *Publisher {
	clientOpts := mqtt.NewClientOptions()
	clientOpts.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Host, opts.Port))
	clientOpts.SetClientID(opts.ClientId)
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetKeepAlive(60 * time.Second)
	clientOpts.SetPingTimeout(10 * time.Second)
	clientOpts.SetConnectTimeout(connectTimeout)
	clientOpts.SetAutoReconnect(true)

	return &Publisher{
		opts:   opts,
		client: mqtt.NewClient(clientOpts),
	}
}

// PublishBattery sends the level as the retained sensor state. The
// discovery announcement goes out before the first state of the process,
// and is retried on the next call if it could not be delivered.
func (p *Publisher) PublishBattery(level int64) error {
	if err := p.connect(); err != nil {
		return err
	}

	if !p.discoverySent {
		if err := p.sendDiscovery(); err != nil {
			return err
		}
		p.discoverySent = true
	}

	if err := p.publish(p.opts.StateTopic, strconv.FormatInt(level, 10)); err != nil {
		return err
	}

	logrus.Infof("Published battery level %d%% to %s", level, p.opts.StateTopic)

	return nil
}

// Close disconnects from the broker, letting in-flight messages drain.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

func (p *Publisher) connect() error {
	if p.client.IsConnected() {
		return nil
	}

	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect %s: timeout", p.opts.Host)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", p.opts.Host, err)
	}
	return nil
}

func (p *Publisher) sendDiscovery() error {
	payload := DiscoveryPayload{
		Name:              p.opts.SensorName,
		StateTopic:        p.opts.StateTopic,
		UnitOfMeasurement: "%",
		DeviceClass:       "battery",
		UniqueId:          p.opts.UniqueId,
		Device:            p.opts.Device,
	}

	raw, err := json.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("mqtt discovery: %w", err)
	}

	logrus.Debugf("Announcing sensor %s", p.opts.UniqueId)

	return p.publish(discoveryTopic(p.opts.UniqueId), string(raw))
}

// publish sends one retained qos 1 message.
func (p *Publisher) publish(topic string, payload string) error {
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}
