// dialogue-agent runs scripted voice agents: an SDR that qualifies leads,
// a fraud desk that verifies flagged transactions, and a barista.
//
// Usage:
//
//	dialogue-agent serve   --agent=sdr|fraud|barista [--addr=:8080]
//	dialogue-agent console --agent=sdr|fraud|barista
//	dialogue-agent leads|orders|cases [--json]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/config"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

// cfg is loaded once before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "dialogue-agent",
	Short: "Scripted voice agents over Twilio, Deepgram and ElevenLabs",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from AGENT_LOG_LEVEL)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: text or json (default from AGENT_LOG_FORMAT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(leadsCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(casesCmd)
	rootCmd.Version = version
}

func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFiles(config.EnvFiles...); err != nil {
		return err
	}
	c, err := config.Load()
	if err != nil {
		return err
	}
	if rootFlags.logLevel != "" {
		c.LogLevel = rootFlags.logLevel
	}
	if rootFlags.logFormat != "" {
		c.LogFormat = rootFlags.logFormat
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid --log-format %q: want text or json", c.LogFormat)
	}
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logging.Init(level, c.LogFormat, cmd.ErrOrStderr())
	cfg = c
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
