package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Connect opens an auto-reconnecting MQTT session.
func Connect(opts Options) (mqtt.Client, error) {
	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)

	if opts.Username != "" {
		co.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		co.SetPassword(opts.Password)
	}

	co.SetAutoReconnect(true)
	co.SetCleanSession(true)
	co.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(co)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", opts.Broker, token.Error())
	}
	return client, nil
}

// MQTTNotifier turns messages on a telemetry topic into analysis triggers.
// The payload is ignored; readings are always re-read from the store.
// Paho keeps one handler per topic, so a notifier serves one subscriber.
type MQTTNotifier struct {
	client mqtt.Client
	topic  string
	qos    byte
	log    *zap.Logger
}

func NewMQTTNotifier(client mqtt.Client, topic string, log *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{client: client, topic: topic, qos: 1, log: log}
}

func (n *MQTTNotifier) Subscribe(ctx context.Context, fn func()) (func(), error) {
	if fn == nil {
		return nil, errors.New("mqtt subscribe: callback is nil")
	}

	token := n.client.Subscribe(n.topic, n.qos, func(_ mqtt.Client, msg mqtt.Message) {
		n.log.Debug("telemetry notification", zap.String("topic", msg.Topic()), zap.Int("bytes", len(msg.Payload())))
		fn()
	})
	if err := wait(ctx, token); err != nil {
		return nil, fmt.Errorf("mqtt subscribe %s: %w", n.topic, err)
	}

	n.log.Info("subscribed to telemetry topic", zap.String("topic", n.topic))

	unsubscribe := func() {
		token := n.client.Unsubscribe(n.topic)
		if !token.WaitTimeout(5 * time.Second) {
			n.log.Warn("mqtt unsubscribe timed out", zap.String("topic", n.topic))
			return
		}
		if err := token.Error(); err != nil {
			n.log.Warn("mqtt unsubscribe failed", zap.String("topic", n.topic), zap.Error(err))
		}
	}
	return unsubscribe, nil
}

func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		return token.Error()
	}
}
