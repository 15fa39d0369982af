package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultBlock = 5 * time.Second

// Subscriber is the worker side of the relay channel: a consumer-group reader
// that hands over one entry at a time and acknowledges entries only when told
// to. At-least-once between broker and worker is the strongest tier this
// transport offers.
type Subscriber struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
	block    time.Duration
}

func NewSubscriber(rdb *redis.Client, stream, group, consumer string) *Subscriber {
	if stream == "" {
		stream = DefaultStream
	}
	return &Subscriber{
		rdb:      rdb,
		stream:   stream,
		group:    group,
		consumer: consumer,
		block:    defaultBlock,
	}
}

// Subscribe creates the consumer group (and the stream, if absent). A group
// that already exists is fine; anything else is a startup failure the caller
// treats as fatal.
func (s *Subscriber) Subscribe(ctx context.Context) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to subscribe to stream %q: %w", s.stream, err)
	}
	return nil
}

// Next blocks until one entry arrives (bounded by the block interval) and
// returns its id and payload. A timed-out wait returns an empty id and no
// error so the caller can loop. A delivered entry whose payload field is
// missing comes back with a nil payload; the caller treats it as poison.
func (s *Subscriber) Next(ctx context.Context) (string, []byte, error) {
	res, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    1,
		Block:    s.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to read from stream %q: %w", s.stream, err)
	}

	if len(res) == 0 || len(res[0].Messages) == 0 {
		return "", nil, nil
	}

	entry := res[0].Messages[0]
	raw, ok := entry.Values[payloadField]
	if !ok {
		return entry.ID, nil, nil
	}

	payload, ok := raw.(string)
	if !ok {
		return entry.ID, nil, nil
	}

	return entry.ID, []byte(payload), nil
}

// Ack marks an entry as fully processed for the consumer group.
func (s *Subscriber) Ack(ctx context.Context, id string) error {
	return s.rdb.XAck(ctx, s.stream, s.group, id).Err()
}
