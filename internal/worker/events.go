package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmehdipour/shop-notifier/internal/dispatcher"
	"github.com/jmehdipour/shop-notifier/internal/kafka"
	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/shopify"
	"go.uber.org/zap"
)

type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

type EventHandler interface {
	Handle(ctx context.Context, ev dispatcher.Event) (dispatcher.Result, error)
}

type AdminSource interface {
	ForShop(ctx context.Context, shop string) (dispatcher.OrderLookup, error)
}

// EventConsumer hands shop event envelopes from Kafka to the dispatcher.
// Every message is committed once handled, including poison messages and
// events that failed unexpectedly.
type EventConsumer struct {
	// Dependencies
	Source Source
	Events EventHandler
	Admins AdminSource // optional
	Log    *zap.Logger

	// Behavior
	Workers int // number of goroutines handling events
}

func NewEventConsumer(src Source, events EventHandler, admins AdminSource, log *zap.Logger) *EventConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventConsumer{
		Source:  src,
		Events:  events,
		Admins:  admins,
		Log:     log,
		Workers: 8,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *EventConsumer) Run(ctx context.Context) error {
	if w.Source == nil || w.Events == nil {
		return errors.New("event-consumer: missing source or handler")
	}
	if w.Workers <= 0 {
		w.Workers = 8
	}

	msgCh := make(chan kafka.Message, w.Workers*2)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			m, err := w.Source.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Log.Warn("kafka fetch failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(200 * time.Millisecond):
				}
				continue
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				w.processOne(ctx, m)
			}
		}()
	}

	wg.Wait()
	return nil
}

func (w *EventConsumer) processOne(ctx context.Context, m kafka.Message) {
	defer func() {
		if err := w.Source.Commit(ctx, m); err != nil && ctx.Err() == nil {
			w.Log.Warn("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}()

	env, err := kafka.DecodeEnvelope(m)
	if err != nil {
		// poison: commit and skip
		w.Log.Warn("dropping kafka message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}

	topic, raw := model.ParseTopic(env.Topic)
	ev := dispatcher.Event{
		ID:       env.ID,
		Topic:    topic,
		RawTopic: raw,
		Shop:     env.Shop,
		Payload:  env.Payload,
	}
	if topic == model.TopicFulfillmentsCreate && w.Admins != nil {
		admin, err := w.Admins.ForShop(ctx, env.Shop)
		switch {
		case errors.Is(err, shopify.ErrNoSession):
			w.Log.Warn("no admin session for shop", zap.String("shop", env.Shop))
		case err != nil:
			w.Log.Error("could not process event",
				zap.String("event_id", ev.ID),
				zap.String("shop", ev.Shop),
				zap.String("topic", raw),
				zap.Error(fmt.Errorf("resolve admin client: %w", err)),
			)
			return
		default:
			ev.Admin = admin
		}
	}

	if _, err := w.Events.Handle(ctx, ev); err != nil {
		w.Log.Error("could not process event",
			zap.String("event_id", ev.ID),
			zap.String("shop", ev.Shop),
			zap.String("topic", raw),
			zap.Error(err),
		)
	}
}
