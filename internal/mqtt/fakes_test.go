package mqtt

import (
	"context"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"tilt_cover/internal/cover"
	"tilt_cover/internal/models"
	"tilt_cover/internal/service"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

// pendingToken never completes, like a connect to an unreachable broker
// with connect retry enabled.
type pendingToken struct{ done chan struct{} }

func (t pendingToken) Wait() bool                       { <-t.done; return true }
func (t pendingToken) WaitTimeout(d time.Duration) bool { return false }
func (t pendingToken) Done() <-chan struct{}            { return t.done }
func (t pendingToken) Error() error                     { return nil }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	connectErr   error
	neverConnect bool
	onConnect    paho.OnConnectHandler
	subscribeErr error
	subscribes   []string
	handlers     map[string]paho.MessageHandler
	published    []published
	disconnected bool
	onPublish    chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: map[string]paho.MessageHandler{}, onPublish: make(chan struct{}, 8)}
}

func (c *fakeClient) Connect() paho.Token {
	if c.neverConnect {
		return pendingToken{done: make(chan struct{})}
	}
	if c.connectErr == nil && c.onConnect != nil {
		c.onConnect(nil)
	}
	return fakeToken{c.connectErr}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	c.published = append(c.published, published{topic: topic, retained: retained, payload: payload.([]byte)})
	c.mu.Unlock()
	c.onPublish <- struct{}{}
	return fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribes = append(c.subscribes, topic)
	if c.subscribeErr != nil {
		return fakeToken{c.subscribeErr}
	}
	c.handlers[topic] = callback
	return fakeToken{}
}

func (c *fakeClient) subscribeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subscribes)
}

func (c *fakeClient) isDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// deliver feeds a message to the handler subscribed on topic.
func (c *fakeClient) deliver(topic, payload string) bool {
	c.mu.Lock()
	h, ok := c.handlers[topic]
	c.mu.Unlock()
	if ok {
		h(nil, fakeMessage{topic: topic, payload: []byte(payload)})
	}
	return ok
}

func (c *fakeClient) subscribed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

type fakeCover struct {
	mu    sync.Mutex
	err   error
	calls []string
	last  service.PositionParams
}

func (f *fakeCover) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeCover) Open(context.Context) error   { return f.record("open") }
func (f *fakeCover) Close(context.Context) error  { return f.record("close") }
func (f *fakeCover) Stop(context.Context) error   { return f.record("stop") }
func (f *fakeCover) Toggle(context.Context) error { return f.record("toggle") }
func (f *fakeCover) SetPosition(_ context.Context, p service.PositionParams) error {
	f.mu.Lock()
	f.last = p
	f.mu.Unlock()
	return f.record("position")
}
func (f *fakeCover) Traits() cover.Traits { return cover.Traits{} }

type fakeFeed struct {
	ch chan models.CoverState
}

func (f *fakeFeed) Subscribe() (<-chan models.CoverState, func()) { return f.ch, func() {} }
