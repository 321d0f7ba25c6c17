package realtime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(hub *Hub, id, topic string) *Client {
	return &Client{ID: id, Topic: topic, hub: hub, send: make(chan WSMessage, 4)}
}

type loopbackRedis struct {
	handlers map[string]func(string, []byte)
	fail     bool
	canceled []string
}

func (l *loopbackRedis) PublishTopicEvent(topic, event string, payload []byte) error {
	if l.fail {
		return errors.New("redis down")
	}
	if h := l.handlers[topic]; h != nil {
		h(event, payload)
	}
	return nil
}

func (l *loopbackRedis) SubscribeTopic(topic string, handler func(string, []byte)) (func(), error) {
	l.handlers[topic] = handler
	return func() { l.canceled = append(l.canceled, topic) }, nil
}

func TestHubBroadcastIsTopicScoped(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	a := testClient(hub, "a", "staff")
	b := testClient(hub, "b", "roster")
	hub.Register(a)
	hub.Register(b)

	hub.Publish("staff", "account_created", map[string]string{"id": "1"})

	require.Len(t, a.send, 1)
	assert.Empty(t, b.send)
	msg := <-a.send
	assert.Equal(t, "account_created", msg.Event)
	var data map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, "1", data["id"])
}

func TestHubPublishThroughRedisDeliversOnce(t *testing.T) {
	redis := &loopbackRedis{handlers: map[string]func(string, []byte){}}
	hub := NewHub(nil, redis, redis)
	a := testClient(hub, "a", "staff")
	hub.Register(a)

	hub.Publish("staff", "account_deleted", map[string]string{"id": "2"})
	assert.Len(t, a.send, 1)

	redis.fail = true
	hub.Publish("staff", "account_deleted", map[string]string{"id": "3"})
	assert.Len(t, a.send, 2)
}

func TestHubUnregisterCancelsSubscription(t *testing.T) {
	redis := &loopbackRedis{handlers: map[string]func(string, []byte){}}
	hub := NewHub(nil, redis, redis)
	a := testClient(hub, "a", "staff")
	b := testClient(hub, "b", "staff")
	hub.Register(a)
	hub.Register(b)
	assert.Equal(t, 2, hub.ClientCount("staff"))

	hub.Unregister(a)
	assert.Empty(t, redis.canceled)
	_, open := <-a.send
	assert.False(t, open)

	hub.Unregister(b)
	assert.Equal(t, []string{"staff"}, redis.canceled)
	assert.Equal(t, 0, hub.ClientCount("staff"))
}
