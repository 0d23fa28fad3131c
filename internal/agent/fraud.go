package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/fraud"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/verify"
)

// Resolver persists case outcomes. fraud.Store satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, id int64, status fraud.Status, note string) error
}

// FraudAgent places the verification call for a pending fraud case.
type FraudAgent struct {
	script *verify.Script
	cases  Resolver
	opts   Options
}

// NewFraud returns the fraud verification agent backed by store.
func NewFraud(store fraud.Store, opts Options) *FraudAgent {
	return &FraudAgent{
		script: verify.NewScript(store),
		cases:  store,
		opts:   opts.withDefaults(),
	}
}

func (a *FraudAgent) Name() string { return "fraud" }

func (a *FraudAgent) Run(ctx context.Context, conv Conversation) (Outcome, error) {
	log := logger(conv, a.Name())
	call, step := a.script.Begin()
	outcome := OutcomeCompleted
	live := true

	for {
		if step.Resolve != nil {
			if err := a.resolve(ctx, step.Resolve); err != nil {
				return OutcomeError, err
			}
			log.Info("case resolved", "case", step.Resolve.CaseID, "status", step.Resolve.Status, "note", step.Resolve.Note)
		}
		if step.Done {
			if live {
				// Closing lines are best effort; the caller may already be gone.
				if err := sayAll(ctx, conv, step.Say...); err != nil {
					log.Debug("closing line not delivered", "error", err)
				}
			}
			return outcome, nil
		}

		reply, err := a.exchange(ctx, conv, step)
		if err != nil {
			outcome = endReason(ctx, err)
			switch outcome {
			case OutcomeAbandoned:
				a.opts.Metrics.RecordAskTimeout(a.Name())
				call, step = a.script.Abandon(call)
			case OutcomeInterrupted:
				// Shutting down: leave the case pending for another call.
				call, step = a.script.Interrupt(call)
			default:
				call, step = a.script.HungUp(call)
			}
			live = outcome == OutcomeAbandoned
			log.Info("call ended early", "state", call.State, "outcome", outcome)
			continue
		}

		call, step, err = a.script.Advance(ctx, call, reply)
		if err != nil {
			return OutcomeError, err
		}
	}
}

func (a *FraudAgent) exchange(ctx context.Context, conv Conversation, step verify.Step) (string, error) {
	if err := sayAll(ctx, conv, step.Say...); err != nil {
		return "", ErrConversationClosed
	}
	reply, err := ask(ctx, conv, step.Ask, a.opts.AskTimeout)
	if err != nil && !errors.Is(err, ErrAskTimeout) && !errors.Is(err, ErrConversationClosed) {
		return "", ErrConversationClosed
	}
	return reply, err
}

// resolve persists r. Resolutions outlive the caller hanging up.
func (a *FraudAgent) resolve(ctx context.Context, r *verify.Resolution) error {
	if err := a.cases.Resolve(context.WithoutCancel(ctx), r.CaseID, r.Status, r.Note); err != nil {
		return fmt.Errorf("resolve case %d: %w", r.CaseID, err)
	}
	a.opts.Metrics.RecordVerification(string(r.Status))
	return nil
}
