// Package notify delivers the wake signal that tells idle transcription
// workers to start polling their queues.
package notify

import (
	"context"
	"fmt"
	"strings"

	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/gcppubsub"
	_ "gocloud.dev/pubsub/mempubsub"
)

// wakeBody is the message body workers subscribe on. The message carries no
// payload beyond which categories have fresh work; workers poll the queue
// endpoint for the actual entries.
const wakeBody = "start_transcribe"

// Publisher sends at most one wake per discovery sweep.
type Publisher interface {
	Wake(ctx context.Context, categories []string) error
}

// Topic publishes wakes to a pub/sub topic opened from a driver URL, for
// example gcppubsub://projects/p/topics/start_transcribe or mem://wake.
type Topic struct {
	topic *pubsub.Topic
}

func OpenTopic(ctx context.Context, url string) (*Topic, error) {
	topic, err := pubsub.OpenTopic(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open topic %s: %w", url, err)
	}
	return &Topic{topic: topic}, nil
}

func (t *Topic) Wake(ctx context.Context, categories []string) error {
	return t.topic.Send(ctx, &pubsub.Message{
		Body: []byte(wakeBody),
		Metadata: map[string]string{
			"categories": strings.Join(categories, ","),
		},
	})
}

func (t *Topic) Shutdown(ctx context.Context) error {
	return t.topic.Shutdown(ctx)
}

// Noop discards wakes. Used when no topic is configured.
type Noop struct{}

func (Noop) Wake(context.Context, []string) error { return nil }
