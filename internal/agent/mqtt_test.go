package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/hostpulse/internal/snapshot"
)

// fakeToken is an mqtt.Token that completes when done is closed.
type fakeToken struct {
	done chan struct{}
	err  error
}

var _ mqtt.Token = (*fakeToken)(nil)

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool { <-t.done; return true }

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakeMQTTClient struct {
	mu           sync.Mutex
	token        mqtt.Token
	topic        string
	qos          byte
	retained     bool
	payload      []byte
	disconnected bool
}

func (c *fakeMQTTClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topic, c.qos, c.retained = topic, qos, retained
	c.payload, _ = payload.([]byte)
	return c.token
}

func (c *fakeMQTTClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func TestMQTTPublisher_Publish(t *testing.T) {
	client := &fakeMQTTClient{token: completedToken(nil)}
	p := newMQTTPublisher(client, MQTTConfig{Topic: "hostpulse/a1/snapshot", QoS: 1}, zap.NewNop())

	snap := snapshot.Snapshot{CPU: snapshot.CPU{Used: 33}, Time: 1735689600}
	require.NoError(t, p.Publish(context.Background(), snap))

	assert.Equal(t, "mqtt", p.Name())
	assert.Equal(t, "hostpulse/a1/snapshot", client.topic)
	assert.Equal(t, byte(1), client.qos)
	assert.False(t, client.retained)

	var got snapshot.Snapshot
	require.NoError(t, json.Unmarshal(client.payload, &got))
	assert.Equal(t, 33.0, got.CPU.Used)
	assert.Equal(t, 1735689600.0, got.Time)
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	client := &fakeMQTTClient{token: completedToken(errors.New("not connected"))}
	p := newMQTTPublisher(client, MQTTConfig{Topic: "t"}, zap.NewNop())

	err := p.Publish(context.Background(), snapshot.Snapshot{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to t")
	assert.Contains(t, err.Error(), "not connected")
}

func TestMQTTPublisher_PublishHonorsContext(t *testing.T) {
	pending := &fakeToken{done: make(chan struct{})}
	client := &fakeMQTTClient{token: pending}
	p := newMQTTPublisher(client, MQTTConfig{Topic: "t", QoS: 2}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Publish(ctx, snapshot.Snapshot{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMQTTPublisher_Close(t *testing.T) {
	client := &fakeMQTTClient{}
	p := newMQTTPublisher(client, MQTTConfig{}, zap.NewNop())

	require.NoError(t, p.Close())
	assert.True(t, client.disconnected)
}
