// Package bridge connects the relay to the phone bridge over MQTT.
// The bridge republishes watch appmessages as JSON objects on the
// appmessage topic; outbound appmessages to the watch go out on the
// command topic.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"baby-timeline-relay/internal/appmessage"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

var (
	ErrConnect   = errors.New("mqtt connect failed")
	ErrSubscribe = errors.New("mqtt subscribe failed")
	ErrPublish   = errors.New("mqtt publish failed")
)

type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	QoS      byte

	AppMessageTopic string
	CommandTopic    string
}

// Bridge wraps the paho client. Inbound payloads are delivered on an
// unbuffered channel so the relay handles one message at a time, the
// same discipline the watch runtime imposes on appmessage callbacks.
type Bridge struct {
	client mqtt.Client
	cfg    Config

	messages chan appmessage.Payload
	done     chan struct{}
}

func New(cfg Config) (*Bridge, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = "baby-relay-" + uuid.NewString()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, token.Error())
	}

	return &Bridge{
		client:   client,
		cfg:      cfg,
		messages: make(chan appmessage.Payload),
		done:     make(chan struct{}),
	}, nil
}

// Messages is the inbound appmessage stream.
func (b *Bridge) Messages() <-chan appmessage.Payload {
	return b.messages
}

// Subscribe starts delivering appmessages onto the Messages channel.
func (b *Bridge) Subscribe() error {
	token := b.client.Subscribe(b.cfg.AppMessageTopic, b.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		var payload appmessage.Payload
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			slog.Error("Error parsing appmessage", "topic", msg.Topic(), "error", err)
			return
		}
		select {
		case b.messages <- payload:
		case <-b.done:
		}
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w: topic %s: %w", ErrSubscribe, b.cfg.AppMessageTopic, token.Error())
	}
	slog.Info("Subscribed to appmessage topic", "topic", b.cfg.AppMessageTopic)
	return nil
}

// resetMessage builds the appmessage that tells the watch the log was
// erased: the sole field signals "reset" to key index 0.
func resetMessage() ([]byte, error) {
	return json.Marshal(map[string]string{"0": "reset"})
}

// NotifyReset sends the reset appmessage to the wearable.
func (b *Bridge) NotifyReset(ctx context.Context) error {
	out, err := resetMessage()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	token := b.client.Publish(b.cfg.CommandTopic, b.cfg.QoS, false, out)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("%w: topic %s: %w", ErrPublish, b.cfg.CommandTopic, token.Error())
	}
	slog.InfoContext(ctx, "Sent reset notification", "topic", b.cfg.CommandTopic)
	return nil
}

func (b *Bridge) Close() {
	close(b.done)
	b.client.Disconnect(250)
}
