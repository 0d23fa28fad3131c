package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/agent"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/archive"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/faq"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/fraud"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/lead"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/metrics"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/order"
)

// agentNames lists the values accepted by --agent.
var agentNames = []string{"sdr", "fraud", "barista"}

// buildAgent opens the stores the named agent needs. The returned func
// releases them. With memCases the fraud agent works on an in-memory copy
// of the seed cases and the case database is left untouched.
func buildAgent(ctx context.Context, name string, m *metrics.Metrics, memCases bool) (agent.Agent, func(), error) {
	opts := agent.Options{AskTimeout: cfg.AskTimeout, Metrics: m}
	noop := func() {}

	switch name {
	case "sdr":
		index, err := loadFAQ(cfg.FAQPath)
		if err != nil {
			return nil, nil, err
		}
		leads, err := archive.Open[lead.Record](cfg.LeadsPath)
		if err != nil {
			return nil, nil, err
		}
		a, err := agent.NewSDR(index, leads, opts)
		return a, noop, err

	case "fraud":
		if memCases {
			seeds, err := fraud.SeedCases()
			if err != nil {
				return nil, nil, err
			}
			return agent.NewFraud(fraud.NewMemStore(seeds...), opts), noop, nil
		}
		st, err := openCases(ctx)
		if err != nil {
			return nil, nil, err
		}
		release := func() {
			if err := st.Close(); err != nil {
				slog.Error("failed to close case store", "error", err)
			}
		}
		return agent.NewFraud(st, opts), release, nil

	case "barista":
		orders, err := archive.Open[order.Order](cfg.OrdersPath)
		if err != nil {
			return nil, nil, err
		}
		a, err := agent.NewBarista(orders, opts)
		return a, noop, err
	}
	return nil, nil, fmt.Errorf("unknown agent %q: want one of %v", name, agentNames)
}

// loadFAQ reads the FAQ at path, or the built-in FAQ when path is empty.
func loadFAQ(path string) (*faq.Index, error) {
	if path == "" {
		return faq.Default()
	}
	index, err := faq.Load(path)
	if err != nil {
		return nil, err
	}
	slog.Info("FAQ loaded", "path", path, "entries", len(index.Entries()))
	return index, nil
}

// openCases opens the case database, seeding it on first use.
func openCases(ctx context.Context) (*fraud.SqlStore, error) {
	seeds, err := fraud.SeedCases()
	if err != nil {
		return nil, err
	}
	return fraud.Open(ctx, cfg.CasesDB, seeds)
}
