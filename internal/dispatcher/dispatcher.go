// Package dispatcher drives one webhook event through normalization,
// classification, persistence and reply.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/media"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/models"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/normalizer"
	"github.com/eucesarrodrigues/chatbot-meuguardiao/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a step of the per-event state machine
type State string

const (
	StateReceived     State = "received"
	StateNormalized   State = "normalized"
	StateMediaPending State = "media_pending"
	StateClassified   State = "classified"
	StateLogged       State = "logged"
	StateReplied      State = "replied"
	StateDone         State = "done"
	StateAborted      State = "aborted"
)

// Outcome describes how one event was handled
type Outcome struct {
	EventID string
	State   State   // terminal state: done or aborted
	Trace   []State // every state entered, in order
	Err     error   // abort cause

	Message  models.InboundMessage
	Verdict  *models.RiskVerdict // nil unless classified
	RecordID int64

	PersistErr error
	NotifyErr  error
	Alerted    bool
}

func (o *Outcome) enter(s State) {
	o.State = s
	o.Trace = append(o.Trace, s)
}

func (o *Outcome) abort(err error) Outcome {
	o.Err = err
	o.enter(StateAborted)
	return *o
}

// Timeouts bound each external call of a unit of work. Zero means no deadline.
type Timeouts struct {
	Classify time.Duration `yaml:"classify" envconfig:"CLASSIFY"`
	Media    time.Duration `yaml:"media" envconfig:"MEDIA"`
	Store    time.Duration `yaml:"store" envconfig:"STORE"`
	Notify   time.Duration `yaml:"notify" envconfig:"NOTIFY"`
}

// Dependencies are the collaborators of a Dispatcher. Alerter is optional.
type Dependencies struct {
	Classifier RiskClassifier
	Resolver   MediaResolver
	Senders    repository.SenderRepository
	Analyses   repository.AnalysisRepository
	Notifier   Notifier
	Alerter    Alerter
}

// Options tune a Dispatcher
type Options struct {
	Timeouts Timeouts
	// AlertMinScore is the lowest score forwarded to the Alerter; <= 0 disables alerts
	AlertMinScore int
}

// Stats are counters since process start
type Stats struct {
	Received              int64 `json:"received"`
	Dropped               int64 `json:"dropped"`
	Aborted               int64 `json:"aborted"`
	Classified            int64 `json:"classified"`
	ClassificationsFailed int64 `json:"classifications_failed"`
	Persisted             int64 `json:"persisted"`
	PersistErrors         int64 `json:"persist_errors"`
	Replied               int64 `json:"replied"`
	NotifyErrors          int64 `json:"notify_errors"`
	Alerts                int64 `json:"alerts"`
	Done                  int64 `json:"done"`
}

type counters struct {
	received, dropped, aborted              atomic.Int64
	classified, classificationsFailed       atomic.Int64
	persisted, persistErrors                atomic.Int64
	replied, notifyErrors, alerts, finished atomic.Int64
}

// Dispatcher processes normalized webhook events. It is safe for concurrent use.
type Dispatcher struct {
	deps     Dependencies
	opts     Options
	now      func() time.Time
	counters counters
	logger   *zap.Logger
}

// New creates a dispatcher
func New(deps Dependencies, opts Options, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		deps:   deps,
		opts:   opts,
		now:    time.Now,
		logger: logger,
	}
}

// Stats returns a snapshot of the dispatcher counters
func (d *Dispatcher) Stats() Stats {
	c := &d.counters
	return Stats{
		Received:              c.received.Load(),
		Dropped:               c.dropped.Load(),
		Aborted:               c.aborted.Load(),
		Classified:            c.classified.Load(),
		ClassificationsFailed: c.classificationsFailed.Load(),
		Persisted:             c.persisted.Load(),
		PersistErrors:         c.persistErrors.Load(),
		Replied:               c.replied.Load(),
		NotifyErrors:          c.notifyErrors.Load(),
		Alerts:                c.alerts.Load(),
		Done:                  c.finished.Load(),
	}
}

// Process runs one event to a terminal state. Failures never escape: they
// are reported on the returned Outcome.
func (d *Dispatcher) Process(ctx context.Context, ev normalizer.Event) (out Outcome) {
	out.EventID = uuid.NewString()
	out.enter(StateReceived)
	d.counters.received.Add(1)

	logger := d.logger.With(zap.String("event_id", out.EventID))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while processing event",
				zap.Any("panic", r),
				zap.Stack("stack"))
			d.counters.aborted.Add(1)
			out.abort(fmt.Errorf("panic: %v", r))
		}
	}()

	msg, err := normalizer.Normalize(ev)
	if err != nil {
		logger.Warn("Dropping malformed event",
			zap.String("message_type", ev.Data.MessageType),
			zap.Error(err))
		d.counters.dropped.Add(1)
		d.counters.aborted.Add(1)
		return out.abort(err)
	}
	out.Message = msg
	out.enter(StateNormalized)

	logger = logger.With(
		zap.String("sender", msg.SenderID),
		zap.String("modality", string(msg.Modality)))

	verdict, err := d.classify(ctx, msg, &out)
	if err != nil {
		logger.Info("Event aborted", zap.Error(err))
		d.counters.aborted.Add(1)
		return out.abort(err)
	}
	out.Verdict = &verdict
	out.enter(StateClassified)

	d.counters.classified.Add(1)
	if verdict.IsFailure() {
		d.counters.classificationsFailed.Add(1)
	}
	logger.Info("Message classified",
		zap.Int("risk_score", verdict.RiskScore),
		zap.String("provider", d.deps.Classifier.Provider()))

	// side effects run with their own deadlines even once ctx is done
	sideCtx := context.WithoutCancel(ctx)

	recordID, err := d.persist(sideCtx, msg, verdict)
	if err != nil {
		out.PersistErr = fmt.Errorf("%w: %w", ErrPersistence, err)
		d.counters.persistErrors.Add(1)
		logger.Error("Failed to persist analysis", zap.Error(err))
	} else {
		out.RecordID = recordID
		out.enter(StateLogged)
		d.counters.persisted.Add(1)
	}

	if err := d.reply(sideCtx, msg, verdict); err != nil {
		out.NotifyErr = fmt.Errorf("%w: %w", ErrNotify, err)
		d.counters.notifyErrors.Add(1)
		logger.Error("Failed to send reply", zap.String("reply_to", msg.ReplyTo), zap.Error(err))
	} else {
		out.enter(StateReplied)
		d.counters.replied.Add(1)
	}

	if d.shouldAlert(verdict) {
		if err := d.alert(sideCtx, msg, verdict); err != nil {
			logger.Warn("Failed to send operator alert", zap.Error(err))
		} else {
			out.Alerted = true
			d.counters.alerts.Add(1)
		}
	}

	out.enter(StateDone)
	d.counters.finished.Add(1)
	logger.Debug("Event processed", zap.Int64("record_id", out.RecordID))
	return out
}

// classify routes msg by modality. The returned error is always an abort cause.
func (d *Dispatcher) classify(ctx context.Context, msg models.InboundMessage, out *Outcome) (models.RiskVerdict, error) {
	switch msg.Modality {
	case models.ModalityText:
		classifyCtx, cancel := withTimeout(ctx, d.opts.Timeouts.Classify)
		defer cancel()
		return d.deps.Classifier.ClassifyText(classifyCtx, msg.Text), nil

	case models.ModalityImage, models.ModalityAudio:
		if !msg.HasMediaRef() {
			return models.RiskVerdict{}, fmt.Errorf("%w: no media reference", ErrMediaUnresolved)
		}
		out.enter(StateMediaPending)

		mediaCtx, cancelMedia := withTimeout(ctx, d.opts.Timeouts.Media)
		content, err := d.deps.Resolver.Resolve(mediaCtx, msg.MediaRef)
		cancelMedia()
		if err != nil {
			return models.RiskVerdict{}, fmt.Errorf("%w: %w", ErrMediaUnresolved, err)
		}

		classifyCtx, cancel := withTimeout(ctx, d.opts.Timeouts.Classify)
		defer cancel()
		verdict, err := d.deps.Classifier.ClassifyMedia(classifyCtx, content, msg.Text)
		if errors.Is(err, media.ErrUnsupported) {
			return models.RiskVerdict{}, fmt.Errorf("%w: %s", ErrUnsupportedContent, content.MIMEType)
		}
		if err != nil {
			// RiskClassifier contract allows no other error; treat it as a failed classification
			return models.FailedVerdict(), nil
		}
		return verdict, nil

	default:
		return models.RiskVerdict{}, fmt.Errorf("%w: %s", ErrUnsupportedContent, msg.Modality)
	}
}

func (d *Dispatcher) persist(ctx context.Context, msg models.InboundMessage, verdict models.RiskVerdict) (int64, error) {
	storeCtx, cancel := withTimeout(ctx, d.opts.Timeouts.Store)
	defer cancel()

	now := d.now()
	sender, err := d.deps.Senders.UpsertSender(storeCtx, msg.SenderID, msg.DisplayName, now)
	if err != nil {
		return 0, err
	}

	rec := models.NewAnalysisRecord(sender.ID, msg, verdict,
		d.deps.Classifier.Provider(), d.deps.Classifier.Model(), now)
	if err := d.deps.Analyses.SaveAnalysis(storeCtx, rec); err != nil {
		return 0, err
	}
	return rec.ID, nil
}

func (d *Dispatcher) reply(ctx context.Context, msg models.InboundMessage, verdict models.RiskVerdict) error {
	notifyCtx, cancel := withTimeout(ctx, d.opts.Timeouts.Notify)
	defer cancel()
	return d.deps.Notifier.SendText(notifyCtx, msg.ReplyTo, FormatReply(verdict))
}

// alert is best effort: the event is already stored and replied, so a panic
// in the Alerter is reported as an error instead of aborting the event.
func (d *Dispatcher) alert(ctx context.Context, msg models.InboundMessage, verdict models.RiskVerdict) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("alerter panic: %v", r)
		}
	}()

	alertCtx, cancel := withTimeout(ctx, d.opts.Timeouts.Notify)
	defer cancel()
	return d.deps.Alerter.Alert(alertCtx, msg, verdict)
}

func (d *Dispatcher) shouldAlert(v models.RiskVerdict) bool {
	return d.deps.Alerter != nil &&
		d.opts.AlertMinScore > 0 &&
		!v.IsFailure() &&
		v.RiskScore >= d.opts.AlertMinScore
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
