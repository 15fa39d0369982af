package relay

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/printrelay/printrelay/internal/message"
)

// DefaultStream is the well-known channel both processes agree on.
const DefaultStream = "printer"

// payloadField is the single stream entry field carrying the encoded message.
const payloadField = "payload"

// Publisher hands validated messages to the broker. Publish returns once the
// broker has accepted the entry, not once a consumer has processed it; the
// stream's own append acknowledgment is the delivery guarantee, so there is no
// local retry loop.
type Publisher struct {
	rdb    *redis.Client
	stream string
}

func NewPublisher(rdb *redis.Client, stream string) *Publisher {
	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{rdb: rdb, stream: stream}
}

func (p *Publisher) Publish(ctx context.Context, m *message.Message) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}

	err = p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{payloadField: data},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}
