package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type pendingToken struct{ doneToken }

func (pendingToken) Done() <-chan struct{} { return make(chan struct{}) }

type fakeMessage struct {
	mqtt.Message
	topic string
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return []byte(`{"id":"1"}`) }

type fakeClient struct {
	mqtt.Client
	subscribeToken mqtt.Token
	handler        mqtt.MessageHandler
	unsubscribed   []string
}

func (c *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	c.handler = cb
	return c.subscribeToken
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.unsubscribed = append(c.unsubscribed, topics...)
	return doneToken{}
}

func TestMQTTNotifierDeliversTriggers(t *testing.T) {
	client := &fakeClient{subscribeToken: doneToken{}}
	n := NewMQTTNotifier(client, "bins/+/telemetry", zap.NewNop())

	var calls atomic.Int32
	unsubscribe, err := n.Subscribe(context.Background(), func() { calls.Add(1) })
	require.NoError(t, err)
	require.NotNil(t, client.handler)

	client.handler(client, fakeMessage{topic: "bins/7/telemetry"})
	client.handler(client, fakeMessage{topic: "bins/8/telemetry"})
	assert.Equal(t, int32(2), calls.Load())

	unsubscribe()
	assert.Equal(t, []string{"bins/+/telemetry"}, client.unsubscribed)
}

func TestMQTTNotifierSubscribeError(t *testing.T) {
	client := &fakeClient{subscribeToken: doneToken{err: errors.New("not authorized")}}
	n := NewMQTTNotifier(client, "bins/+/telemetry", zap.NewNop())

	_, err := n.Subscribe(context.Background(), func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}

func TestMQTTNotifierSubscribeHonorsContext(t *testing.T) {
	client := &fakeClient{subscribeToken: pendingToken{}}
	n := NewMQTTNotifier(client, "bins/+/telemetry", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := n.Subscribe(ctx, func() {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMQTTNotifierRejectsNilCallback(t *testing.T) {
	n := NewMQTTNotifier(&fakeClient{subscribeToken: doneToken{}}, "t", zap.NewNop())
	_, err := n.Subscribe(context.Background(), nil)
	assert.Error(t, err)
}
