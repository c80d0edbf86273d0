// Package statestream connects sceneryd to the automation host over MQTT:
// it mirrors the host's statestream topics into an in-memory snapshot of
// entity states and publishes service commands back.
package statestream

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lightctl/sceneryd/internal/config"
)

// Client wraps the paho MQTT client with sceneryd's connection settings.
// Safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	qos    byte
}

// Connect establishes the broker connection. A missing client ID gets a
// random suffix so multiple instances never collide.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "sceneryd-" + uuid.NewString()[:8]
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectTimeout(cfg.ConnectTimeout.Duration())
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.OnConnect = func(pahomqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Str("client_id", clientID).Msg("Connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ pahomqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost, reconnecting")
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout.Duration()) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	return &Client{client: client, qos: cfg.QoS}, nil
}

// Subscribe registers a handler for a topic pattern. Handlers run on paho
// goroutines and must not block.
func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := c.client.Subscribe(topic, c.qos, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	return nil
}

// Publish sends a payload to a topic.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	token := c.client.Publish(topic, c.qos, retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Disconnect closes the broker connection gracefully.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
