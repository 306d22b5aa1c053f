// Package pubsub publishes snapshots to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Config names the topic snapshots are published to.
type Config struct {
	ProjectID string
	TopicID   string
}

// Publisher wraps a Pub/Sub topic. Each PutObject is one message whose data is
// the snapshot and whose attributes carry its name and content type.
type Publisher struct {
	topic *pubsub.Topic
}

// New creates a Publisher for the provided topic.
func New(topic *pubsub.Topic) *Publisher {
	return &Publisher{topic: topic}
}

// Dial connects to Pub/Sub and returns a Publisher for cfg.TopicID. The
// returned close function stops the topic's publish goroutines and closes the
// client.
func Dial(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Publisher, func() error, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" || strings.TrimSpace(cfg.TopicID) == "" {
		return nil, nil, fmt.Errorf("pubsub project and topic are required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	topic := client.Topic(cfg.TopicID)
	closeFn := func() error {
		topic.Stop()
		return client.Close()
	}
	return New(topic), closeFn, nil
}

// PutObject publishes data as a single message and returns a
// pubsub://projects/<p>/topics/<t>/messages/<id> location.
func (p *Publisher) PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error) {
	if p.topic == nil {
		return "", fmt.Errorf("pubsub publisher is not configured")
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read payload: %w", err)
	}

	msg := &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			"name":         path,
			"content_type": contentType,
		},
	}
	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return "pubsub://" + p.topic.String() + "/messages/" + id, nil
}
