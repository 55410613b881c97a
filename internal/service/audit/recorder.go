// Package audit records the outcome of every handled shop event.
package audit

import (
	"context"
	"time"

	"github.com/jmehdipour/shop-notifier/internal/dispatcher"
	"github.com/jmehdipour/shop-notifier/internal/metrics"
	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/repository"
	"github.com/jmehdipour/shop-notifier/internal/util"
	"go.uber.org/zap"
)

// Recorder counts outcomes in Prometheus and appends them to the ClickHouse
// journal. A journal failure is logged and otherwise ignored.
type Recorder struct {
	journal repository.DispatchesRepository // optional
	log     *zap.Logger
	now     func() time.Time
}

func NewRecorder(journal repository.DispatchesRepository, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{journal: journal, log: log, now: time.Now}
}

var _ dispatcher.Observer = (*Recorder)(nil)

func (r *Recorder) Observe(ctx context.Context, ev dispatcher.Event, res dispatcher.Result) {
	metrics.EventsTotal.WithLabelValues(ev.Topic.String(), res.Outcome.String()).Inc()

	switch {
	case res.Sent:
		metrics.MessagesTotal.WithLabelValues(res.Kind.String(), "sent").Inc()
	case res.Outcome == model.OutcomeDeliveryFailed:
		metrics.MessagesTotal.WithLabelValues(res.Kind.String(), "failed").Inc()
	}

	if r.journal == nil {
		return
	}

	rec := Record(ev, res, r.now())
	if err := r.journal.Insert(ctx, rec); err != nil {
		r.log.Warn("journal insert failed", zap.String("event_id", rec.ID), zap.Error(err))
	}
}

// Record builds the journal row for one handled event.
func Record(ev dispatcher.Event, res dispatcher.Result, at time.Time) model.DispatchRecord {
	topic := ev.Topic.String()
	if ev.Topic == model.TopicOther && ev.RawTopic != "" {
		topic = ev.RawTopic
	}

	return model.DispatchRecord{
		ID:        util.IDOr(ev.ID),
		Shop:      ev.Shop,
		Topic:     topic,
		Outcome:   res.Outcome,
		Reason:    res.Reason(),
		Recipient: res.Recipient,
		Template:  res.Template,
		CreatedAt: at.UTC(),
	}
}
