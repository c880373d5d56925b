package mqtt

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type Config struct {
	Broker               string
	ClientID             string
	Username             string
	Password             string
	CleanSession         bool
	KeepAlive            int
	ConnectTimeout       int
	AutoReconnect        bool
	MaxReconnectInterval time.Duration
}

type Client struct {
	client mqtt.Client
	config *Config
	log    *zap.Logger
}

type MessageHandler func(topic string, payload []byte)

func NewClient(config *Config, log *zap.Logger) *Client {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	opts.SetUsername(config.Username)
	opts.SetPassword(config.Password)
	opts.SetCleanSession(config.CleanSession)
	opts.SetKeepAlive(time.Duration(config.KeepAlive) * time.Second)
	opts.SetConnectTimeout(time.Duration(config.ConnectTimeout) * time.Second)
	opts.SetAutoReconnect(config.AutoReconnect)
	opts.SetMaxReconnectInterval(config.MaxReconnectInterval)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info("mqtt client connected", zap.String("broker", config.Broker))
	})

	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	})

	opts.SetReconnectingHandler(func(c mqtt.Client, opts *mqtt.ClientOptions) {
		log.Info("reconnecting to MQTT broker")
	})

	return &Client{
		client: mqtt.NewClient(opts),
		config: config,
		log:    log,
	}
}

// Connect establishes a connection to the MQTT broker
func (c *Client) Connect() error {
	token := c.client.Connect()
	token.Wait()

	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}

	return nil
}

// Subscribe subscribes to a topic with handler
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	token := c.client.Subscribe(topic, qos, func(client mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})

	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	c.log.Info("subscribed to topic", zap.String("topic", topic), zap.Uint8("qos", qos))
	return nil
}

// Publish publishes a message to a topic
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	token.Wait()
	return token.Error()
}

// Unsubscribe unsubscribes from a topic
func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	token.Wait()
	return token.Error()
}

// Disconnect disconnects from MQTT broker
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
	c.log.Info("disconnected from MQTT broker")
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
