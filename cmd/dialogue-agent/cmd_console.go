package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/agent"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/console"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/metrics"
)

var consoleFlags struct {
	agent string
	mem   bool
}

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Talk to an agent by typing",
	Long:  "Run one agent session on the terminal. Each line is one utterance; end of input hangs up.",
	RunE:  runConsole,
}

func init() {
	f := consoleCmd.Flags()
	f.StringVar(&consoleFlags.agent, "agent", "sdr", "Agent to run: sdr, fraud or barista")
	f.BoolVar(&consoleFlags.mem, "mem", false, "Fraud agent: rehearse on in-memory seed cases instead of the case database")
}

func runConsole(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	m := metrics.New("")
	a, release, err := buildAgent(ctx, consoleFlags.agent, m, consoleFlags.mem)
	if err != nil {
		return err
	}
	defer release()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s agent ready. Ctrl-D hangs up.\n", a.Name())
	conv := console.New(cmd.InOrStdin(), out)
	defer conv.Close()
	return agent.Run(ctx, a, conv, m)
}
