package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmehdipour/shop-notifier/internal/model"
	"github.com/jmehdipour/shop-notifier/internal/notify"
	"go.uber.org/zap"
)

var ErrNoAdminClient = errors.New("no admin client for shop")

// Event is a verified webhook delivery. Admin may be nil when the shop has
// no stored session; only fulfillment events need it.
type Event struct {
	ID       string
	Topic    model.Topic
	RawTopic string
	Shop     string
	Payload  []byte
	Admin    OrderLookup
}

// Result describes how one event ended. Sent is true only when a message
// was accepted by the messaging API.
type Result struct {
	Outcome   model.Outcome
	Sent      bool
	Reasons   []string
	Recipient string
	Template  string
	Kind      model.TemplateKind
}

func (r Result) Reason() string { return strings.Join(r.Reasons, "; ") }

type Deps struct {
	Settings     SettingsStore
	Messenger    Messenger
	Logger       *zap.Logger
	Observer     Observer // optional
	SummaryLimit int      // product summary length, default 60
}

// Dispatcher routes shop events by topic and sends at most one WhatsApp
// message per event. It keeps no state between events.
type Dispatcher struct {
	settings     SettingsStore
	messenger    Messenger
	log          *zap.Logger
	observer     Observer
	summaryLimit int
}

func New(d Deps) *Dispatcher {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.SummaryLimit <= 0 {
		d.SummaryLimit = notify.DefaultSummaryLimit
	}

	return &Dispatcher{
		settings:     d.Settings,
		messenger:    d.Messenger,
		log:          d.Logger,
		observer:     d.Observer,
		summaryLimit: d.SummaryLimit,
	}
}

// Handle processes one event. Skips, lookup failures and delivery failures
// are reported through Result; the error is non-nil only when the event
// could not be processed at all (settings store down, unreadable payload).
func (d *Dispatcher) Handle(ctx context.Context, ev Event) (Result, error) {
	log := d.log.With(
		zap.String("event_id", ev.ID),
		zap.String("topic", ev.Topic.String()),
		zap.String("shop", ev.Shop),
	)
	log.Info("webhook received")

	var (
		res Result
		err error
	)
	switch ev.Topic {
	case model.TopicAppUninstalled:
		res = d.handleUninstalled(log)
	case model.TopicOrdersCreate:
		res, err = d.handleOrderCreated(ctx, ev, log)
	case model.TopicFulfillmentsCreate:
		res, err = d.handleFulfillmentCreated(ctx, ev, log)
	default:
		res = d.handleOther(ev, log)
	}
	if err != nil {
		return Result{}, err
	}

	if d.observer != nil {
		d.observer.Observe(ctx, ev, res)
	}
	return res, nil
}

func (d *Dispatcher) handleUninstalled(log *zap.Logger) Result {
	log.Info("app uninstalled, nothing to do")
	return Result{Outcome: model.OutcomeOK}
}

func (d *Dispatcher) handleOther(ev Event, log *zap.Logger) Result {
	log.Info("unhandled webhook topic", zap.String("raw_topic", ev.RawTopic))
	return Result{Outcome: model.OutcomeOK}
}

// loadSettings returns the settings when kind can be sent, or a
// ConfigIncomplete result otherwise.
func (d *Dispatcher) loadSettings(ctx context.Context, shop string, kind model.TemplateKind, log *zap.Logger) (*model.TenantSettings, *Result, error) {
	settings, err := d.settings.Get(ctx, shop)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings for %s: %w", shop, err)
	}

	if settings.Complete(kind) {
		return settings, nil, nil
	}

	var missing []string
	switch {
	case settings == nil:
		missing = append(missing, "settings not saved")
	default:
		if strings.TrimSpace(settings.PhoneID) == "" {
			missing = append(missing, "phone id is not set")
		}
		if strings.TrimSpace(settings.AccessToken) == "" {
			missing = append(missing, "access token is not set")
		}
		if settings.Template(kind) == "" {
			missing = append(missing, kind.String()+" template name is not set")
		}
	}
	log.Info("skipping, settings incomplete", zap.Strings("reasons", missing))
	return nil, &Result{Outcome: model.OutcomeConfigIncomplete, Reasons: missing, Kind: kind}, nil
}

func (d *Dispatcher) handleOrderCreated(ctx context.Context, ev Event, log *zap.Logger) (Result, error) {
	settings, skip, err := d.loadSettings(ctx, ev.Shop, model.KindOrderConfirmation, log)
	if err != nil || skip != nil {
		return deref(skip), err
	}

	var order model.OrderPayload
	if err := json.Unmarshal(ev.Payload, &order); err != nil {
		return Result{}, fmt.Errorf("decode order payload: %w", err)
	}
	log = log.With(zap.String("order", order.Name))
	log.Info("processing order created")

	phone := order.CustomerPhone()
	if phone == "" {
		reasons := []string{"customer phone is missing"}
		log.Info("skipping order confirmation", zap.Strings("reasons", reasons))
		return Result{Outcome: model.OutcomeFieldMissing, Reasons: reasons, Kind: model.KindOrderConfirmation}, nil
	}

	summary := notify.SummarizeProducts(order.Titles(), d.summaryLimit)
	params := notify.OrderConfirmationParams(order.FirstName(), order.Name, order.TotalPrice, order.Currency, summary)

	return d.send(ctx, *settings, model.KindOrderConfirmation, phone, params, log), nil
}

func (d *Dispatcher) handleFulfillmentCreated(ctx context.Context, ev Event, log *zap.Logger) (Result, error) {
	settings, skip, err := d.loadSettings(ctx, ev.Shop, model.KindFulfillment, log)
	if err != nil || skip != nil {
		return deref(skip), err
	}

	var fulfillment model.FulfillmentPayload
	if err := json.Unmarshal(ev.Payload, &fulfillment); err != nil {
		return Result{}, fmt.Errorf("decode fulfillment payload: %w", err)
	}
	gid := fulfillment.OrderID.OrderGID()
	log = log.With(zap.String("order_gid", gid))
	log.Info("processing fulfillment created")

	order, err := d.lookupOrder(ctx, ev.Admin, gid)
	if err != nil {
		log.Error("failed to fetch order details for fulfillment", zap.Error(err))
		return Result{
			Outcome: model.OutcomeLookupFailed,
			Reasons: []string{err.Error()},
			Kind:    model.KindFulfillment,
		}, nil
	}

	phone := order.CustomerPhone()
	if phone == "" {
		reasons := []string{"customer phone is missing"}
		if strings.TrimSpace(fulfillment.TrackingURL) == "" {
			reasons = append(reasons, "tracking link is missing")
		}
		log.Info("skipping fulfillment notification", zap.Strings("reasons", reasons))
		return Result{Outcome: model.OutcomeFieldMissing, Reasons: reasons, Kind: model.KindFulfillment}, nil
	}

	params := notify.FulfillmentParams(order.FirstName(), order.Name, fulfillment.TrackingNumber, fulfillment.TrackingURL)

	return d.send(ctx, *settings, model.KindFulfillment, phone, params, log), nil
}

func (d *Dispatcher) lookupOrder(ctx context.Context, admin OrderLookup, gid string) (*model.OrderDetails, error) {
	if admin == nil {
		return nil, ErrNoAdminClient
	}
	if gid == "" {
		return nil, errors.New("fulfillment has no order id")
	}

	order, err := admin.FetchOrderByGID(ctx, gid)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("order %s not found", gid)
	}
	return order, nil
}

func (d *Dispatcher) send(ctx context.Context, settings model.TenantSettings, kind model.TemplateKind, to string, params []model.TextParameter, log *zap.Logger) Result {
	template := settings.Template(kind)
	res := Result{Recipient: to, Template: template, Kind: kind}

	// the messenger logs the classified failure
	if err := d.messenger.Send(ctx, settings, to, template, params); err != nil {
		res.Outcome = model.OutcomeDeliveryFailed
		res.Reasons = []string{err.Error()}
		return res
	}

	res.Outcome = model.OutcomeOK
	res.Sent = true
	return res
}

func deref(r *Result) Result {
	if r == nil {
		return Result{}
	}
	return *r
}
