// Package pubsub implements a Google Cloud Pub/Sub publisher that announces
// each persisted vacancy to downstream consumers.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/vkarmanov/vacancy-harvester/internal/clock/system"
	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

// Publisher wraps a Pub/Sub topic handle. Publishing is fire-and-forget;
// the client batches and retries in the background.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	clock  harvest.Clock
}

// New creates a Pub/Sub client and verifies the topic exists. It
// authenticates using Application Default Credentials.
func New(ctx context.Context, projectID, topicID string) (*Publisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		_ = client.Close()
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}
	return &Publisher{client: client, topic: topic, clock: system.New()}, nil
}

// Publish sends a notification that a vacancy record was persisted.
func (p *Publisher) Publish(ctx context.Context, vacancyID string) error {
	payload, err := json.Marshal(map[string]string{
		"vacancy_id":   vacancyID,
		"harvested_at": p.clock.Now().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	p.topic.Publish(ctx, &pubsub.Message{Data: payload})
	return nil
}

// Close stops the topic publisher and closes the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
