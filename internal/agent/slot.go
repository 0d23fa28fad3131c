package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/lead"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/order"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/slotfill"
)

// Appender stores records of one kind. archive.File satisfies it.
type Appender[T any] interface {
	Append(ctx context.Context, rec T) error
}

// saveFunc persists the values collected in a session. complete is false
// when the caller left before the session finished.
type saveFunc func(ctx context.Context, sessionID string, values map[string]string, complete bool) error

// SlotAgent runs a slot-filling controller: greet, ask for each field, and
// save once the controller ends the session.
type SlotAgent struct {
	name       string
	greeting   string
	controller *slotfill.Controller
	save       saveFunc
	// savePartial also saves sessions that stop early with at least one field.
	savePartial bool
	opts        Options
}

// NewSDR returns the lead-qualification agent. Leads are saved as completed
// when the caller ends the call, and as abandoned when the caller goes
// silent or hangs up after giving at least one field.
func NewSDR(faq slotfill.Matcher, leads Appender[lead.Record], opts Options) (*SlotAgent, error) {
	c, err := lead.NewController(faq)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	save := func(ctx context.Context, sessionID string, values map[string]string, complete bool) error {
		outcome := lead.OutcomeCompleted
		if !complete {
			outcome = lead.OutcomeAbandoned
		}
		rec := lead.Record{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			Outcome:   outcome,
			SavedAt:   time.Now().UTC(),
			Fields:    values,
		}
		if err := leads.Append(ctx, rec); err != nil {
			return fmt.Errorf("save lead: %w", err)
		}
		opts.Metrics.RecordSaved("lead")
		return nil
	}
	return &SlotAgent{
		name:        "sdr",
		greeting:    lead.Greeting,
		controller:  c,
		save:        save,
		savePartial: true,
		opts:        opts,
	}, nil
}

// NewBarista returns the coffee-order agent. An order is saved once every
// field is filled; unfinished orders are dropped.
func NewBarista(orders Appender[order.Order], opts Options) (*SlotAgent, error) {
	c, err := order.NewController()
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	save := func(ctx context.Context, sessionID string, values map[string]string, _ bool) error {
		o := order.FromValues(values)
		o.ID = uuid.NewString()
		o.SessionID = sessionID
		o.SavedAt = time.Now().UTC()
		if err := orders.Append(ctx, o); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		opts.Metrics.RecordSaved("order")
		return nil
	}
	return &SlotAgent{
		name:       "barista",
		greeting:   order.Greeting,
		controller: c,
		save:       save,
		opts:       opts,
	}, nil
}

func (a *SlotAgent) Name() string { return a.name }

func (a *SlotAgent) Run(ctx context.Context, conv Conversation) (Outcome, error) {
	log := logger(conv, a.name)
	st, first := a.controller.Start()
	if err := sayAll(ctx, conv, a.greeting, first); err != nil {
		return a.stop(ctx, conv, st, err)
	}

	for {
		text, err := listen(ctx, conv, a.opts.AskTimeout)
		if err != nil {
			return a.stop(ctx, conv, st, err)
		}

		var turn slotfill.Turn
		st, turn = a.controller.Handle(st, text)
		if turn.FAQHit {
			a.opts.Metrics.RecordFAQHit(a.name)
		}
		if turn.Filled != "" {
			log.Debug("field filled", "field", turn.Filled)
		}
		if turn.Save != nil {
			if err := a.save(ctx, conv.ID(), turn.Save, true); err != nil {
				return OutcomeError, err
			}
			log.Info("record saved", "reason", turn.Reason)
		}
		if err := sayAll(ctx, conv, turn.Messages...); err != nil {
			if turn.Done {
				return OutcomeCompleted, nil
			}
			return a.stop(ctx, conv, st, err)
		}
		if turn.Done {
			return OutcomeCompleted, nil
		}
	}
}

// stop ends a session that did not finish and saves what was collected when
// the agent keeps partial records.
func (a *SlotAgent) stop(ctx context.Context, conv Conversation, st slotfill.State, cause error) (Outcome, error) {
	if !errors.Is(cause, ErrAskTimeout) && !errors.Is(cause, ErrConversationClosed) {
		// A failed Say means the caller is gone.
		logger(conv, a.name).Warn("conversation lost", "error", cause)
		cause = ErrConversationClosed
	}
	if errors.Is(cause, ErrAskTimeout) {
		a.opts.Metrics.RecordAskTimeout(a.name)
	}
	if a.savePartial && len(st.Values) > 0 {
		if err := a.save(context.WithoutCancel(ctx), conv.ID(), a.controller.Record(st), false); err != nil {
			return OutcomeError, err
		}
		logger(conv, a.name).Info("partial record saved", "fields", len(st.Values))
	}
	return endReason(ctx, cause), nil
}
