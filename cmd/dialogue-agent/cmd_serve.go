package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/metrics"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/voice"
)

var serveFlags struct {
	agent string
	addr  string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer Twilio calls with a voice agent",
	Long: "Serve the TwiML webhook on /voice/inbound, Twilio Media Streams on /media-stream\n" +
		"and Prometheus metrics on /metrics. Every call runs one agent session.",
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.agent, "agent", "sdr", "Agent to run: sdr, fraud or barista")
	f.StringVar(&serveFlags.addr, "addr", "", "Listen address (default from AGENT_LISTEN_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireVoice(); err != nil {
		return err
	}
	addr := cfg.ListenAddr
	if serveFlags.addr != "" {
		addr = serveFlags.addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New("")
	a, release, err := buildAgent(ctx, serveFlags.agent, m, false)
	if err != nil {
		return err
	}
	defer release()

	providers, err := voice.NewProviders(cfg.Voice)
	if err != nil {
		return err
	}
	defer func() { _ = providers.Close() }()

	return voice.NewServer(providers, cfg.Voice, a, m).Run(ctx, addr)
}
