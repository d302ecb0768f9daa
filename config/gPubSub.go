package config

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

const (
	EventInventoryImported  = "inventory.imported"
	EventInventoryFinalized = "inventory.finalized"
	EventInventoryDeleted   = "inventory.deleted"
)

type InventoryEvent struct {
	Type              string    `json:"type"`
	InventoryId       int       `json:"inventory_id"`
	InventoryDocument string    `json:"inventory_document"`
	InventoryYear     string    `json:"inventory_year"`
	ItemCount         int       `json:"item_count,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
	CorrelationId     string    `json:"correlation_id,omitempty"`
}

// EventPublisher announces inventory lifecycle changes after they are committed.
type EventPublisher interface {
	Publish(ctx context.Context, event InventoryEvent) error
}

// NoopPublisher drops every event. Used when Pub/Sub is not configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, InventoryEvent) error { return nil }

type PubSubPublisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubPublisher uses Application Default Credentials unless credJSON is given.
func NewPubSubPublisher(ctx context.Context, projectID, topicID, credJSON string) (*PubSubPublisher, error) {
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}
	var (
		c   *pubsub.Client
		err error
	)
	if credJSON != "" {
		c, err = pubsub.NewClient(ctx, projectID, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		c, err = pubsub.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, err
	}
	topic, err := createTopicIfNotExists(ctx, c, topicID)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return &PubSubPublisher{client: c, topic: topic}, nil
}

func createTopicIfNotExists(ctx context.Context, c *pubsub.Client, topicID string) (*pubsub.Topic, error) {
	if topicID == "" {
		return nil, errors.New("topic is empty")
	}
	t := c.Topic(topicID)
	ok, err := t.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if ok {
		return t, nil
	}
	return c.CreateTopic(ctx, topicID)
}

func (p *PubSubPublisher) Publish(ctx context.Context, event InventoryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	res := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type": event.Type,
		},
	})
	_, err = res.Get(ctx)
	return err
}

func (p *PubSubPublisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
