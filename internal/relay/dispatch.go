package relay

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/printrelay/printrelay/internal/message"
)

// SequenceStore numbers each message it durably appends.
type SequenceStore interface {
	Insert(m *message.Message) (int64, error)
}

// Renderer produces physical output for one message. An ordinal of 0 means
// the message was never numbered.
type Renderer interface {
	Render(m *message.Message, ordinal int64) error
}

// Dispatcher is the worker's sequential consumer: receive one message,
// persist it, render it, acknowledge it, repeat. It never has more than one
// message in flight, which is what guarantees both the ordering of ordinals
// and the renderer's exclusive hold on the device.
type Dispatcher struct {
	sub      *Subscriber
	store    SequenceStore
	renderer Renderer
	dry      bool
	log      zerolog.Logger
}

func NewDispatcher(sub *Subscriber, store SequenceStore, renderer Renderer, dry bool, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sub:      sub,
		store:    store,
		renderer: renderer,
		dry:      dry,
		log:      logger,
	}
}

// Run loops until ctx is cancelled. Transport errors mid-run are returned to
// the caller; the worker is supervised externally rather than retrying with
// backoff.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Step(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

// Step waits for at most one message and fully processes it. A wait that
// times out without a message is not an error.
func (d *Dispatcher) Step(ctx context.Context) error {
	id, payload, err := d.sub.Next(ctx)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}

	d.process(ctx, id, payload)
	return nil
}

func (d *Dispatcher) process(ctx context.Context, id string, payload []byte) {
	// Whatever happens below, the entry is acknowledged: a poison message or
	// a failed render must never wedge the group's pending list.
	defer func() {
		if err := d.sub.Ack(ctx, id); err != nil {
			d.log.Error().Err(err).Str("entry", id).Msg("failed to ack entry")
		}
	}()

	m, err := message.Decode(payload)
	if err != nil {
		d.log.Error().Err(err).Str("entry", id).Msg("malformed payload, skipping")
		return
	}

	d.log.Info().Str("id", m.ID).Str("title", m.Title).Msg("received message")

	ordinal, err := d.store.Insert(m)
	if err != nil {
		// Persistence failure never blocks delivery: the render proceeds
		// without a receipt number.
		d.log.Error().Err(err).Str("id", m.ID).Msg("failed to persist message, rendering unnumbered")
		ordinal = 0
	} else {
		d.log.Info().Str("id", m.ID).Int64("ordinal", ordinal).Msg("message persisted")
	}

	if d.dry {
		d.log.Info().Str("id", m.ID).Int64("ordinal", ordinal).Str("title", m.Title).
			Msg("dry run: skipping render")
		return
	}

	if err := d.renderer.Render(m, ordinal); err != nil {
		d.log.Error().Err(err).Str("id", m.ID).Int64("ordinal", ordinal).Msg("failed to render message")
		return
	}

	d.log.Info().Str("id", m.ID).Int64("ordinal", ordinal).Msg("message rendered")
}
