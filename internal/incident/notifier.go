package incident

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Alert is the message sent to a user's emergency contacts when an incident is raised.
type Alert struct {
	IncidentID string      `json:"incidentId"`
	UserID     string      `json:"userId"`
	Type       Type        `json:"type"`
	Lat        float64     `json:"lat"`
	Lng        float64     `json:"lng"`
	Address    *string     `json:"address,omitempty"`
	Recipients []Recipient `json:"recipients"`
	RaisedAt   time.Time   `json:"raisedAt"`
}

// Recipient is one emergency contact to reach.
type Recipient struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation,omitempty"`
}

// Notifier delivers alerts to emergency contacts.
type Notifier interface {
	Notify(ctx context.Context, alert *Alert) error
}

// LogNotifier records alerts in the log. It is used when no alert topic is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, alert *Alert) error {
	n.logger.Warn().
		Str("incident_id", alert.IncidentID).
		Str("user_id", alert.UserID).
		Str("type", string(alert.Type)).
		Int("recipients", len(alert.Recipients)).
		Msg("SOS alert raised without a delivery channel")
	return nil
}

// PubSubNotifier publishes alerts to a Pub/Sub topic for the delivery service.
type PubSubNotifier struct {
	publisher *pubsub.Publisher
	topic     string
}

// NewPubSubNotifier publishes to topic using client.
func NewPubSubNotifier(client *pubsub.Client, topic string) *PubSubNotifier {
	return &PubSubNotifier{publisher: client.Publisher(topic), topic: topic}
}

// Notify publishes the alert and waits for the server to accept it.
func (n *PubSubNotifier) Notify(ctx context.Context, alert *Alert) error {
	msg, err := encodeAlert(alert)
	if err != nil {
		return err
	}
	if _, err := n.publisher.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish alert to %s: %w", n.topic, err)
	}
	return nil
}

// Stop flushes pending messages.
func (n *PubSubNotifier) Stop() {
	n.publisher.Stop()
}

func encodeAlert(alert *Alert) (*pubsub.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return nil, fmt.Errorf("encode alert: %w", err)
	}
	return &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"incident_id": alert.IncidentID,
			"type":        string(alert.Type),
		},
	}, nil
}
