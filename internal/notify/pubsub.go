package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"go.uber.org/zap"
)

// PubSubProvider implements Provider on Google Cloud Pub/Sub.
type PubSubProvider struct {
	client *pubsub.Client
	topic  string
	logger *zap.Logger
}

func fullTopicName(projectID, topicID string) string {
	return fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
}

// NewPubSubProvider creates a Pub/Sub client and verifies the topic is
// active. It authenticates using Application Default Credentials.
func NewPubSubProvider(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSubProvider, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	name := fullTopicName(projectID, topicID)
	topic, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: name})
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close pubsub client after topic lookup failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("get pubsub topic %q: %w", topicID, err)
	}
	if topic.State != pubsubpb.Topic_ACTIVE {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("failed to close pubsub client after topic state check", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q in project %q is not active", topicID, projectID)
	}

	return &PubSubProvider{client: client, topic: name, logger: logger}, nil
}

// Publish sends the run summary to the topic. The send itself is
// asynchronous; the client batches and retries in the background.
func (p *PubSubProvider) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notify message: %w", err)
	}
	publisher := p.client.Publisher(p.topic)
	result := publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"run_id": msg.RunID,
			"reason": msg.Reason,
		},
	})
	_ = result
	return nil
}

// Close stops the publisher and closes the underlying client connection.
func (p *PubSubProvider) Close() error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
