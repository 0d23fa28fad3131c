package voice

import (
	"context"
	"strings"
	"sync"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/agent"
)

// call adapts one Media Streams session to agent.Conversation. Final
// transcripts become utterances; outbound text goes to say.
type call struct {
	id  string
	say func(ctx context.Context, text string) error

	mu      sync.Mutex
	pending strings.Builder

	utterances chan string
	closed     chan struct{}
	closeOnce  sync.Once
}

var _ agent.Conversation = (*call)(nil)

func newCall(id string, say func(ctx context.Context, text string) error) *call {
	return &call{
		id:         id,
		say:        say,
		utterances: make(chan string, 16),
		closed:     make(chan struct{}),
	}
}

func (c *call) ID() string { return c.id }

func (c *call) Say(ctx context.Context, text string) error {
	select {
	case <-c.closed:
		return agent.ErrConversationClosed
	default:
	}
	return c.say(ctx, text)
}

func (c *call) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case text := <-c.utterances:
		return text, nil
	case <-c.closed:
		return "", agent.ErrConversationClosed
	}
}

// transcript collects STT results. Interim text is ignored; each final
// result completes an utterance.
func (c *call) transcript(text string, final bool) {
	if !final {
		return
	}
	c.mu.Lock()
	c.pending.WriteString(text)
	full := strings.TrimSpace(c.pending.String())
	c.pending.Reset()
	c.mu.Unlock()

	if full == "" {
		return
	}
	select {
	case c.utterances <- full:
	case <-c.closed:
	default:
		// The agent is not keeping up; the caller spoke over it.
	}
}

// hangup unblocks Listen for good.
func (c *call) hangup() {
	c.closeOnce.Do(func() { close(c.closed) })
}
