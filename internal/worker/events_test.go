package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmehdipour/shop-notifier/internal/dispatcher"
	"github.com/jmehdipour/shop-notifier/internal/kafka"
	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/shopify"
)

// chanSource serves queued messages, then blocks until ctx is cancelled.
type chanSource struct {
	mu        sync.Mutex
	msgs      chan kafka.Message
	committed []int64
}

func newChanSource(msgs ...kafka.Message) *chanSource {
	ch := make(chan kafka.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	return &chanSource{msgs: ch}
}

func (s *chanSource) Fetch(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-s.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (s *chanSource) Commit(ctx context.Context, m kafka.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = append(s.committed, m.Offset)
	return nil
}

func (s *chanSource) commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.committed)
}

type recordingHandler struct {
	mu     sync.Mutex
	events []dispatcher.Event
	err    error
}

func (h *recordingHandler) Handle(ctx context.Context, ev dispatcher.Event) (dispatcher.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return dispatcher.Result{Outcome: model.OutcomeOK}, h.err
}

func (h *recordingHandler) byTopic(topic model.Topic) []dispatcher.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []dispatcher.Event
	for _, ev := range h.events {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

type noLookup struct{}

func (noLookup) FetchOrderByGID(ctx context.Context, gid string) (*model.OrderDetails, error) {
	return nil, nil
}

type admins struct{ err error }

func (a admins) ForShop(ctx context.Context, shop string) (dispatcher.OrderLookup, error) {
	if a.err != nil {
		return nil, a.err
	}
	return noLookup{}, nil
}

func runUntil(t *testing.T, w *EventConsumer, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(finished)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !done() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-finished
}

func TestEventConsumer_HandlesAndCommits(t *testing.T) {
	src := newChanSource(
		kafka.Message{Offset: 1, Value: []byte(`{"id":"e1","shop":"a.myshopify.com","topic":"orders/create","payload":{"name":"#1"}}`)},
		kafka.Message{Offset: 2, Value: []byte(`{not json`)},
		kafka.Message{Offset: 3, Key: []byte("a.myshopify.com"), Value: []byte(`{"id":"e3","topic":"FULFILLMENTS_CREATE","payload":{"order_id":1}}`)},
	)
	h := &recordingHandler{}
	w := NewEventConsumer(src, h, admins{}, nil)
	w.Workers = 2

	runUntil(t, w, func() bool { return src.commits() == 3 })

	if got := src.commits(); got != 3 {
		t.Fatalf("expected 3 commits (poison included), got %d", got)
	}
	orders := h.byTopic(model.TopicOrdersCreate)
	if len(orders) != 1 || orders[0].ID != "e1" || string(orders[0].Payload) != `{"name":"#1"}` {
		t.Fatalf("unexpected order events: %+v", orders)
	}
	fulfillments := h.byTopic(model.TopicFulfillmentsCreate)
	if len(fulfillments) != 1 || fulfillments[0].Admin == nil || fulfillments[0].Shop != "a.myshopify.com" {
		t.Fatalf("unexpected fulfillment events: %+v", fulfillments)
	}
}

func TestEventConsumer_UnexpectedFailureStillCommits(t *testing.T) {
	src := newChanSource(kafka.Message{Offset: 7, Value: []byte(`{"shop":"a.myshopify.com","topic":"orders/create","payload":{}}`)})
	h := &recordingHandler{err: errors.New("settings store down")}
	w := NewEventConsumer(src, h, nil, nil)

	runUntil(t, w, func() bool { return src.commits() == 1 })

	if src.commits() != 1 {
		t.Fatal("expected the failed event to be committed")
	}
}

func TestEventConsumer_AdminResolveFailureSkipsEvent(t *testing.T) {
	src := newChanSource(kafka.Message{Offset: 4, Value: []byte(`{"shop":"a.myshopify.com","topic":"fulfillments/create","payload":{"order_id":1}}`)})
	h := &recordingHandler{}
	w := NewEventConsumer(src, h, admins{err: errors.New("load session: connection refused")}, nil)

	runUntil(t, w, func() bool { return src.commits() == 1 })

	if src.commits() != 1 {
		t.Fatal("expected the event to be committed")
	}
	if got := h.byTopic(model.TopicFulfillmentsCreate); len(got) != 0 {
		t.Fatalf("event must not be dispatched, got %+v", got)
	}
}

func TestEventConsumer_MissingSessionStillDispatches(t *testing.T) {
	src := newChanSource(kafka.Message{Offset: 5, Value: []byte(`{"shop":"a.myshopify.com","topic":"fulfillments/create","payload":{"order_id":1}}`)})
	h := &recordingHandler{}
	w := NewEventConsumer(src, h, admins{err: shopify.ErrNoSession}, nil)

	runUntil(t, w, func() bool { return src.commits() == 1 })

	got := h.byTopic(model.TopicFulfillmentsCreate)
	if len(got) != 1 || got[0].Admin != nil {
		t.Fatalf("expected one dispatch without admin client, got %+v", got)
	}
}

func TestEventConsumer_RequiresDependencies(t *testing.T) {
	if err := (&EventConsumer{}).Run(context.Background()); err == nil {
		t.Fatal("expected error without source and handler")
	}
}
