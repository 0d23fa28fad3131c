// Package agent runs dialogue controllers against a live conversation.
//
// A Conversation is whatever carries text to and from the caller: a Twilio
// call with speech recognition and synthesis, or a terminal. Agents only see
// Say and Listen; the transport and speech layers stay outside.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/logging"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/metrics"
)

// Conversation is one live session with a caller.
type Conversation interface {
	// ID identifies the session in logs and persisted records.
	ID() string
	// Say delivers one outbound message.
	Say(ctx context.Context, text string) error
	// Listen blocks until the caller's next complete utterance.
	// It returns ErrConversationClosed once the caller has gone.
	Listen(ctx context.Context) (string, error)
}

// Agent drives one conversation to its end.
type Agent interface {
	Name() string
	Run(ctx context.Context, conv Conversation) (Outcome, error)
}

// Outcome labels how a session ended.
type Outcome string

const (
	OutcomeCompleted    Outcome = "completed"
	OutcomeAbandoned    Outcome = "abandoned"
	OutcomeDisconnected Outcome = "disconnected"
	OutcomeInterrupted  Outcome = "interrupted"
	OutcomeError        Outcome = "error"
)

var (
	// ErrConversationClosed is returned by Listen after the caller hung up.
	ErrConversationClosed = errors.New("conversation closed")
	// ErrAskTimeout is returned when a question goes unanswered.
	ErrAskTimeout = errors.New("no reply before timeout")
)

// DefaultAskTimeout bounds every wait for a caller reply.
const DefaultAskTimeout = 30 * time.Second

// Options are shared by all agents.
type Options struct {
	// AskTimeout bounds each wait for a reply. Zero means DefaultAskTimeout.
	AskTimeout time.Duration
	Metrics    *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.AskTimeout <= 0 {
		o.AskTimeout = DefaultAskTimeout
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New("")
	}
	return o
}

// Run drives a to completion on conv and records the session's metrics.
func Run(ctx context.Context, a Agent, conv Conversation, m *metrics.Metrics) error {
	log := logging.ForSession("agent", conv.ID(), a.Name())
	start := time.Now()
	m.RecordSessionStart(a.Name())
	log.Info("session started")

	outcome, err := a.Run(ctx, conv)
	if err != nil {
		outcome = OutcomeError
		log.Error("session failed", "error", err)
	}
	elapsed := time.Since(start)
	m.RecordSessionEnd(a.Name(), string(outcome), elapsed)
	log.Info("session ended", "outcome", outcome, "duration", elapsed.Round(time.Millisecond))
	if err != nil {
		return fmt.Errorf("%s session %s: %w", a.Name(), conv.ID(), err)
	}
	return nil
}

// sayAll speaks messages in order.
func sayAll(ctx context.Context, conv Conversation, msgs ...string) error {
	for _, m := range msgs {
		if m == "" {
			continue
		}
		if err := conv.Say(ctx, m); err != nil {
			return fmt.Errorf("say: %w", err)
		}
	}
	return nil
}

// listen waits up to timeout for the next utterance. A timeout is reported
// as ErrAskTimeout; cancellation of ctx and hang-ups as ErrConversationClosed.
func listen(ctx context.Context, conv Conversation, timeout time.Duration) (string, error) {
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := conv.Listen(lctx)
	switch {
	case err == nil:
		return text, nil
	case ctx.Err() != nil:
		return "", ErrConversationClosed
	case errors.Is(err, context.DeadlineExceeded):
		return "", ErrAskTimeout
	case errors.Is(err, ErrConversationClosed):
		return "", ErrConversationClosed
	}
	return "", fmt.Errorf("listen: %w", err)
}

// ask speaks prompt, then waits for the reply.
func ask(ctx context.Context, conv Conversation, prompt string, timeout time.Duration) (string, error) {
	if err := sayAll(ctx, conv, prompt); err != nil {
		return "", err
	}
	return listen(ctx, conv, timeout)
}

// endReason maps a listen error onto the session outcome. A cancelled ctx
// means the session was cut off on our side, not by the caller.
func endReason(ctx context.Context, err error) Outcome {
	switch {
	case ctx.Err() != nil:
		return OutcomeInterrupted
	case errors.Is(err, ErrAskTimeout):
		return OutcomeAbandoned
	}
	return OutcomeDisconnected
}

func logger(conv Conversation, name string) *slog.Logger {
	return logging.ForSession("agent", conv.ID(), name)
}
