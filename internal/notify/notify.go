// Package notify pushes supervisor transitions to an MQTT broker so other
// boxes on the network (chat bots, dashboards, a shelf LED) can react to
// the stream going up or down. Entirely optional: no broker configured,
// no notifier.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Event types published to the topic.
const (
	EventStreamStarted = "stream_started"
	EventStreamStopped = "stream_stopped"
	EventBackoff       = "backoff"
)

// Event is one supervisor transition.
type Event struct {
	Type      string    `json:"event_type"`
	Mode      string    `json:"mode,omitempty"` // primary or fallback
	PID       int       `json:"pid,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds the broker connection settings.
type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// Client publishes events. Delivery is fire-and-forget; a flaky broker
// must never stall the control loop.
type Client struct {
	client mqtt.Client
	topic  string
}

// Connect dials the broker and blocks until the first connection attempt
// resolves. Reconnects after that are automatic.
func Connect(config Config) (*Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("⚠️ MQTT connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Println("📨 MQTT connection established")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	log.Println("✅ Notifier connected to broker:", config.Broker)
	return &Client{client: client, topic: config.Topic}, nil
}

// Publish sends one event. Failures are logged and swallowed; the caller
// never waits on the broker.
func (c *Client) Publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("⚠️ encode event: %v", err)
		return
	}

	token := c.client.Publish(c.topic, 1, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("⚠️ publish event %s: %v", event.Type, token.Error())
		}
	}()
}

// Close flushes and drops the broker connection.
func (c *Client) Close() {
	c.client.Disconnect(250)
}
