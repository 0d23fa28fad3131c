// Package console runs an agent as a text chat on a terminal.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/agent"
)

// Conversation reads caller lines from in and writes agent lines to out.
// Blank lines are skipped. End of input hangs up.
type Conversation struct {
	id    string
	mu    sync.Mutex
	out   io.Writer
	lines chan string

	done      chan struct{}
	closeOnce sync.Once
	// stopped is closed when the reader goroutine returns.
	stopped chan struct{}
}

var _ agent.Conversation = (*Conversation)(nil)

// New starts reading in. The reader goroutine exits at end of input or,
// once Close was called, as soon as it has a line nobody will take.
func New(in io.Reader, out io.Writer) *Conversation {
	c := &Conversation{
		id:      "console-" + uuid.NewString(),
		out:     out,
		lines:   make(chan string),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go c.read(in)
	return c
}

func (c *Conversation) read(in io.Reader) {
	defer close(c.stopped)
	defer close(c.lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		select {
		case c.lines <- line:
		case <-c.done:
			return
		}
	}
}

// Close hangs up. Lines still unread are discarded.
func (c *Conversation) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *Conversation) ID() string { return c.id }

func (c *Conversation) Say(_ context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.out, "agent> %s\n", text); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

func (c *Conversation) Listen(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", agent.ErrConversationClosed
	case line, ok := <-c.lines:
		if !ok {
			return "", agent.ErrConversationClosed
		}
		return line, nil
	}
}
