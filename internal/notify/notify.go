package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/sirupsen/logrus"
)

// Topics published on the event bus.
const (
	TopicUserSignup       = "user.signup"
	TopicUserActivated    = "user.activated"
	TopicCascadeRequested = "cascade.requested"
)

// Event is the payload carried on every topic.
type Event struct {
	ID         string    `json:"id"`
	UserID     uint64    `json:"user_id"`
	ActorID    uint64    `json:"actor_id,omitempty"`
	Login      string    `json:"login,omitempty"`
	Email      string    `json:"email,omitempty"`
	Token      string    `json:"token,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Dispatcher publishes events without reporting failure to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, topic string, event Event)
}

// NewBus creates the in-process event bus.
func NewBus() *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewStdLogger(false, false),
	)
}

// BusDispatcher publishes JSON events to a watermill publisher.
type BusDispatcher struct {
	publisher message.Publisher
	log       logrus.FieldLogger
}

func NewBusDispatcher(publisher message.Publisher, log logrus.FieldLogger) *BusDispatcher {
	return &BusDispatcher{publisher: publisher, log: log}
}

// Dispatch fills in the event id and time when missing and publishes it.
// Errors are logged and dropped.
func (d *BusDispatcher) Dispatch(ctx context.Context, topic string, event Event) {
	if event.ID == "" {
		event.ID = watermill.NewUUID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	log := d.log.WithFields(logrus.Fields{"topic": topic, "event_id": event.ID, "user_id": event.UserID})

	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("failed to encode event")
		return
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	if err := d.publisher.Publish(topic, msg); err != nil {
		log.WithError(err).Warn("failed to publish event")
		return
	}
	log.Debug("event published")
}

// Noop discards every event.
type Noop struct{}

func (Noop) Dispatch(context.Context, string, Event) {}

// Handler processes one decoded event.
type Handler func(ctx context.Context, event Event) error

// DefaultRedeliveryDelay is how long Consume waits before handing a failed
// event back to the bus.
const DefaultRedeliveryDelay = time.Second

type consumeConfig struct {
	redeliveryDelay time.Duration
}

// ConsumeOption configures Consume.
type ConsumeOption func(*consumeConfig)

// WithRedeliveryDelay sets the pause between a handler failure and the
// redelivery of the event.
func WithRedeliveryDelay(d time.Duration) ConsumeOption {
	return func(c *consumeConfig) {
		if d > 0 {
			c.redeliveryDelay = d
		}
	}
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks a handler error that redelivery cannot fix. Consume acks
// the event instead of nacking it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was wrapped with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

// Consume subscribes to topic and feeds decoded events to handle until ctx
// ends or the subscription closes. An event is acked once handled. A failed
// event is nacked after the redelivery delay so the bus delivers it again,
// unless the error is Permanent.
func Consume(ctx context.Context, subscriber message.Subscriber, topic string, handle Handler, log logrus.FieldLogger, opts ...ConsumeOption) error {
	cfg := consumeConfig{redeliveryDelay: DefaultRedeliveryDelay}
	for _, opt := range opts {
		opt(&cfg)
	}

	messages, err := subscriber.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	for msg := range messages {
		var event Event
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			log.WithError(err).WithField("topic", topic).Error("dropping undecodable event")
			msg.Ack()
			continue
		}

		err := handle(ctx, event)
		if err == nil {
			msg.Ack()
			continue
		}

		entry := log.WithError(err).WithFields(logrus.Fields{
			"topic":    topic,
			"event_id": event.ID,
			"user_id":  event.UserID,
		})
		if IsPermanent(err) {
			entry.Error("event handler failed, dropping event")
			msg.Ack()
			continue
		}

		entry.Warn("event handler failed, redelivering")
		select {
		case <-ctx.Done():
		case <-time.After(cfg.redeliveryDelay):
		}
		msg.Nack()
	}

	return nil
}
