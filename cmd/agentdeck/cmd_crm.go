package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/user/agentdeck/internal/agents"
	"github.com/user/agentdeck/internal/types"
)

func init() {
	rootCmd.AddCommand(leadCmd, ticketCmd, inventoryCmd)
	leadCmd.AddCommand(leadListCmd, leadQualifyCmd)
	ticketCmd.AddCommand(ticketListCmd, ticketDraftCmd, ticketReplyCmd, ticketEscalateCmd)
	inventoryCmd.AddCommand(inventoryListCmd, inventoryAnalyzeCmd, inventoryOrderCmd, inventoryStockCmd)

	ticketReplyCmd.Flags().Int("csat", 0, "customer satisfaction 1-5 (omitted when 0)")
	ticketEscalateCmd.Flags().String("reason", "", "escalation reason")
	inventoryOrderCmd.Flags().Int("qty", 0, "order quantity (suggested quantity when 0)")
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func scoreText(score *int) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprint(*score)
}

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Inspect and qualify leads",
}

var leadListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var leads []types.Lead
		if err := newClient().get(cmd.Context(), "/api/leads", &leads); err != nil {
			return err
		}
		tw := newTable()
		tw.AppendHeader(table.Row{"ID", "Name", "Company", "Source", "Budget", "Intent", "Score", "Stage"})
		for _, l := range leads {
			tw.AppendRow(table.Row{l.ID, l.Name, l.Company, l.Source, l.Budget, l.Intent, scoreText(l.Score), l.Stage})
		}
		tw.Render()
		return nil
	},
}

var leadQualifyCmd = &cobra.Command{
	Use:   "qualify <id>",
	Short: "Score a lead and route it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var q agents.Qualification
		if err := newClient().post(cmd.Context(), "/api/leads/"+url.PathEscape(args[0])+"/qualify", nil, &q); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: score %d, %s (stage %s)\n", q.LeadID, q.Score, q.Decision, q.Stage)
		for _, r := range q.Reasons {
			fmt.Fprintf(os.Stdout, "  - %s\n", r)
		}
		return nil
	},
}

var ticketCmd = &cobra.Command{
	Use:   "ticket",
	Short: "Draft replies and manage support tickets",
}

var ticketListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var tickets []types.Ticket
		if err := newClient().get(cmd.Context(), "/api/tickets", &tickets); err != nil {
			return err
		}
		tw := newTable()
		tw.AppendHeader(table.Row{"ID", "Subject", "Customer", "Priority", "Status", "Assignee"})
		for _, t := range tickets {
			tw.AppendRow(table.Row{t.ID, t.Subject, t.CustomerName, t.Priority, t.Status, t.Assignee})
		}
		tw.Render()
		return nil
	},
}

var ticketDraftCmd = &cobra.Command{
	Use:   "draft <id>",
	Short: "Classify a ticket and draft a reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var d agents.Draft
		if err := newClient().post(cmd.Context(), "/api/tickets/"+url.PathEscape(args[0])+"/draft", nil, &d); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Intent:     %s (%.2f)\n", d.Intent, d.Confidence)
		fmt.Fprintf(os.Stdout, "Sentiment:  %s, urgency %s\n", d.Sentiment, d.Urgency)
		fmt.Fprintf(os.Stdout, "Escalate:   %v\n", d.EscalationNeeded)
		if len(d.Tags) > 0 {
			fmt.Fprintf(os.Stdout, "Tags:       %s\n", strings.Join(d.Tags, ", "))
		}
		fmt.Fprintf(os.Stdout, "\n%s\n", d.SuggestedResponse)
		return nil
	},
}

var ticketReplyCmd = &cobra.Command{
	Use:   "reply <id> <response>",
	Short: "Send a response and resolve the ticket",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{"response": args[1]}
		if csat, _ := cmd.Flags().GetInt("csat"); csat > 0 {
			body["csat"] = csat
		}
		if err := newClient().post(cmd.Context(), "/api/tickets/"+url.PathEscape(args[0])+"/reply", body, nil); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Ticket %s resolved.\n", args[0])
		return nil
	},
}

var ticketEscalateCmd = &cobra.Command{
	Use:   "escalate <id>",
	Short: "Escalate a ticket to Tier-2",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		if err := newClient().post(cmd.Context(), "/api/tickets/"+url.PathEscape(args[0])+"/escalate", map[string]string{"reason": reason}, nil); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Ticket %s escalated.\n", args[0])
		return nil
	},
}

var inventoryCmd = &cobra.Command{
	Use:     "inventory",
	Aliases: []string{"inv"},
	Short:   "Analyse stock and place orders",
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventory items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var items []types.InventoryItem
		if err := newClient().get(cmd.Context(), "/api/inventory", &items); err != nil {
			return err
		}
		tw := newTable()
		tw.AppendHeader(table.Row{"SKU", "Name", "Stock", "Reorder", "Max", "Demand/day", "ETA", "Status"})
		for _, it := range items {
			tw.AppendRow(table.Row{it.SKU, it.Name, it.CurrentStock, it.ReorderPoint, it.MaxStock, it.DailyDemand, it.SupplierETADays, it.Status})
		}
		tw.Render()
		return nil
	},
}

var inventoryAnalyzeCmd = &cobra.Command{
	Use:   "analyze <sku>",
	Short: "Run the supply analysis for one item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var a agents.InventoryAnalysis
		if err := newClient().post(cmd.Context(), "/api/inventory/"+url.PathEscape(args[0])+"/analyze", nil, &a); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s: %d days of supply, risk %d (%s)\n", a.SKU, a.DaysOfSupply, a.RiskScore, a.RiskLevel)
		if rec := a.OrderRecommendation; rec != nil && rec.Recommended {
			fmt.Fprintf(os.Stdout, "Recommended order: %d units (%s)\n", rec.Quantity, rec.Urgency)
		}
		for _, r := range a.Recommendations {
			fmt.Fprintf(os.Stdout, "  [%s] %s: %s\n", r.Priority, r.Action, r.Reason)
		}
		return nil
	},
}

var inventoryOrderCmd = &cobra.Command{
	Use:   "order <sku>",
	Short: "Generate a purchase order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qty, _ := cmd.Flags().GetInt("qty")
		var order types.Order
		if err := newClient().post(cmd.Context(), "/api/inventory/"+url.PathEscape(args[0])+"/order", map[string]int{"quantity": qty}, &order); err != nil {
			return err
		}
		return printJSON(order)
	},
}

var inventoryStockCmd = &cobra.Command{
	Use:   "stock <sku> <set|receive|consume> <qty>",
	Short: "Adjust stock on hand",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		var qty int
		if _, err := fmt.Sscanf(args[2], "%d", &qty); err != nil {
			return fmt.Errorf("invalid quantity %q", args[2])
		}
		var item types.InventoryItem
		body := map[string]any{"action": args[1], "quantity": qty}
		if err := newClient().post(cmd.Context(), "/api/inventory/"+url.PathEscape(args[0])+"/stock", body, &item); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%s stock is now %d (%s).\n", item.SKU, item.CurrentStock, item.Status)
		return nil
	},
}
