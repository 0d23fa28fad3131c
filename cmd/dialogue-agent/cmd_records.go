package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/archive"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/lead"
	"github.com/agentplexus/omnivoice-examples/twilio-dialogue-agents/internal/order"
)

var recordFlags struct {
	json bool
}

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List saved leads",
	RunE:  runLeads,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List saved coffee orders",
	RunE:  runOrders,
}

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List fraud cases and their review status",
	RunE:  runCases,
}

func init() {
	for _, c := range []*cobra.Command{leadsCmd, ordersCmd, casesCmd} {
		c.Flags().BoolVar(&recordFlags.json, "json", false, "Print records as JSON")
	}
}

func runLeads(cmd *cobra.Command, _ []string) error {
	f, err := archive.Open[lead.Record](cfg.LeadsPath)
	if err != nil {
		return err
	}
	recs, err := f.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if recordFlags.json {
		return printJSON(out, recs)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SAVED\tOUTCOME\tNAME\tCOMPANY\tEMAIL\tROLE\tTIMELINE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.SavedAt.Format(time.DateTime), r.Outcome,
			dash(r.Fields["name"]), dash(r.Fields["company"]), dash(r.Fields["email"]),
			dash(r.Fields["role"]), dash(r.Fields["timeline"]))
	}
	return tw.Flush()
}

func runOrders(cmd *cobra.Command, _ []string) error {
	f, err := archive.Open[order.Order](cfg.OrdersPath)
	if err != nil {
		return err
	}
	recs, err := f.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if recordFlags.json {
		return printJSON(out, recs)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SAVED\tNAME\tDRINK\tSIZE\tMILK\tEXTRAS")
	for _, o := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			o.SavedAt.Format(time.DateTime), dash(o.Name), dash(o.DrinkType),
			dash(o.Size), dash(o.Milk), dash(strings.Join(o.Extras, ", ")))
	}
	return tw.Flush()
}

func runCases(cmd *cobra.Command, _ []string) error {
	st, err := openCases(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	cases, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if recordFlags.json {
		return printJSON(out, cases)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tMERCHANT\tAMOUNT\tCARD\tSTATUS\tNOTE")
	for _, c := range cases {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.UserName, c.MerchantName, c.TransactionAmount, c.CardEnding, c.Status, dash(c.OutcomeNote))
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
