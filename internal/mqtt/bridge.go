// Package mqtt bridges the cover to an MQTT broker: state reports are
// published retained, commands are received on set topics.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"tilt_cover/internal/logger"
	"tilt_cover/internal/models"
	"tilt_cover/internal/service"
)

const (
	defaultTopicPrefix = "cover"
	commandTimeout     = 5 * time.Second
	disconnectQuiesce  = 250 // ms
)

type Config struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	QoS         byte
}

// Client is the part of the paho client the bridge uses.
type Client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// NewClient builds a paho client that reconnects on its own. onConnect runs
// after every successful connect, including reconnects.
func NewClient(cfg Config, onConnect paho.OnConnectHandler) paho.Client {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(onConnect)
	return paho.NewClient(opts)
}

type Bridge struct {
	client Client
	cover  service.Cover
	feed   service.StateFeed
	qos    byte
	prefix string
	log    *logger.Logger

	mu  sync.Mutex
	ctx context.Context
}

func NewBridge(client Client, cfg Config, cv service.Cover, feed service.StateFeed, log *logger.Logger) *Bridge {
	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")
	if prefix == "" {
		prefix = defaultTopicPrefix
	}
	return &Bridge{client: client, cover: cv, feed: feed, qos: cfg.QoS, prefix: prefix, log: log, ctx: context.Background()}
}

// Dial builds a bridge on a paho client that resubscribes the set topics
// on every reconnect.
func Dial(cfg Config, cv service.Cover, feed service.StateFeed, log *logger.Logger) *Bridge {
	b := NewBridge(nil, cfg, cv, feed, log)
	b.client = NewClient(cfg, b.onConnect)
	return b
}

func (b *Bridge) StateTopic() string    { return b.prefix + "/state" }
func (b *Bridge) CommandTopic() string  { return b.prefix + "/set" }
func (b *Bridge) PositionTopic() string { return b.prefix + "/position/set" }
func (b *Bridge) TiltTopic() string     { return b.prefix + "/tilt/set" }

// Run connects and publishes every state report until ctx is canceled.
// The set topics are subscribed from the connect handler, so they survive
// broker reconnects. A broker that is never reached does not hold up
// cancellation.
func (b *Bridge) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	// Subscribe to the feed first so no report is missed.
	states, unsub := b.feed.Subscribe()
	defer unsub()

	token := b.client.Connect()
	select {
	case <-ctx.Done():
		b.client.Disconnect(disconnectQuiesce)
		return nil
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	defer b.client.Disconnect(disconnectQuiesce)

	if b.log != nil {
		b.log.Infow("mqtt_bridge_started", "prefix", b.prefix)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-states:
			if !ok {
				return nil
			}
			b.publishState(st)
		}
	}
}

// onConnect installs the set topic handlers. With a clean session the
// broker forgets them on every disconnect.
func (b *Bridge) onConnect(paho.Client) {
	subs := []struct {
		topic  string
		handle func(context.Context, []byte) error
	}{
		{b.CommandTopic(), b.handleCommand},
		{b.PositionTopic(), b.handlePosition},
		{b.TiltTopic(), b.handleTilt},
	}
	for _, sub := range subs {
		if err := b.subscribe(sub.topic, sub.handle); err != nil && b.log != nil {
			b.log.Errorw("mqtt_subscribe_failed", "topic", sub.topic, "err", err)
		}
	}
	if b.log != nil {
		b.log.Infow("mqtt_subscribed", "prefix", b.prefix)
	}
}

func (b *Bridge) baseContext() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

func (b *Bridge) subscribe(topic string, handle func(context.Context, []byte) error) error {
	token := b.client.Subscribe(topic, b.qos, func(_ paho.Client, msg paho.Message) {
		cctx, cancel := context.WithTimeout(b.baseContext(), commandTimeout)
		defer cancel()
		if err := handle(cctx, msg.Payload()); err != nil && b.log != nil {
			b.log.Errorw("mqtt_command_failed", "topic", msg.Topic(), "payload", string(msg.Payload()), "err", err)
		}
	})
	if !token.WaitTimeout(commandTimeout) {
		return fmt.Errorf("mqtt subscribe %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe %s: %w", topic, err)
	}
	return nil
}

func (b *Bridge) handleCommand(ctx context.Context, payload []byte) error {
	cmd, err := ParseCommand(payload)
	if err != nil {
		return err
	}
	switch cmd {
	case CommandOpen:
		return b.cover.Open(ctx)
	case CommandClose:
		return b.cover.Close(ctx)
	case CommandStop:
		return b.cover.Stop(ctx)
	default:
		return b.cover.Toggle(ctx)
	}
}

func (b *Bridge) handlePosition(ctx context.Context, payload []byte) error {
	v, err := ParsePercent(payload)
	if err != nil {
		return err
	}
	return b.cover.SetPosition(ctx, service.PositionParams{Position: &v})
}

func (b *Bridge) handleTilt(ctx context.Context, payload []byte) error {
	v, err := ParsePercent(payload)
	if err != nil {
		return err
	}
	return b.cover.SetPosition(ctx, service.PositionParams{Tilt: &v})
}

// publishState is fire-and-forget; the token is not waited on.
func (b *Bridge) publishState(st models.CoverState) {
	payload, err := json.Marshal(newStatePayload(st))
	if err != nil {
		if b.log != nil {
			b.log.Errorw("mqtt_state_marshal_failed", "err", err)
		}
		return
	}
	b.client.Publish(b.StateTopic(), b.qos, true, payload)
}
