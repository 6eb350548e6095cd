package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/user/agentdeck/internal/agents"
	"github.com/user/agentdeck/internal/metrics"
	"github.com/user/agentdeck/internal/orchestrator"
	"github.com/user/agentdeck/internal/tasks"
	"github.com/user/agentdeck/internal/types"
)

func init() {
	rootCmd.AddCommand(statusCmd, tasksCmd, agentsCmd, eventsCmd, batchCmd)
	tasksCmd.AddCommand(tasksListCmd, tasksProcessCmd)
	agentsCmd.AddCommand(agentsStartCmd, agentsStopCmd)

	tasksListCmd.Flags().String("status", "", "only show tasks with this status")
	tasksProcessCmd.Flags().Int("limit", 0, "maximum tasks to run (0 drains the queue)")
	eventsCmd.Flags().String("type", "", "only show events of this type")
	eventsCmd.Flags().Int("limit", 20, "number of events to show")
	batchCmd.Flags().Int("max-concurrent", 0, "items processed at once (configured default when 0)")
}

type taskList struct {
	Tasks  []tasks.Task         `json:"tasks"`
	Counts map[tasks.Status]int `json:"counts"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agents, metrics and queue depth",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		ctx := cmd.Context()

		var stats []agents.Stats
		if err := client.get(ctx, "/api/agents", &stats); err != nil {
			return err
		}
		var m metrics.State
		if err := client.get(ctx, "/api/metrics", &m); err != nil {
			return err
		}
		var tl taskList
		if err := client.get(ctx, "/api/tasks", &tl); err != nil {
			return err
		}

		renderAgents(stats)

		tw := newTable()
		tw.SetTitle("Metrics")
		tw.AppendRows([]table.Row{
			{"Total leads", m.Metrics.TotalLeads},
			{"Conversion rate", fmt.Sprintf("%.1f%%", m.Metrics.ConversionRate)},
			{"Avg lead score", m.Metrics.AvgLeadScore},
			{"Active tickets", m.Metrics.ActiveTickets},
			{"SLA compliance", fmt.Sprintf("%d%%", m.Metrics.SLACompliance)},
			{"Inventory alerts", m.Metrics.InventoryAlerts},
			{"Fill rate", fmt.Sprintf("%d%%", m.Metrics.FillRate)},
		})
		if m.Error != "" {
			tw.AppendFooter(table.Row{"Error", m.Error})
		}
		tw.Render()

		fmt.Fprintf(os.Stdout, "Tasks: %d pending, %d processing, %d completed, %d failed\n",
			tl.Counts[tasks.StatusPending], tl.Counts[tasks.StatusProcessing],
			tl.Counts[tasks.StatusCompleted], tl.Counts[tasks.StatusFailed])
		return nil
	},
}

func renderAgents(stats []agents.Stats) {
	tw := newTable()
	tw.SetTitle("Agents")
	tw.AppendHeader(table.Row{"Agent", "Active", "Processed", "Detail"})
	for _, s := range stats {
		var detail string
		switch s.Name {
		case agents.LeadAgentName:
			detail = fmt.Sprintf("%d qualified, avg score %d", s.Qualified, s.AvgScore)
		case agents.SupportAgentName:
			detail = fmt.Sprintf("%d resolved, efficiency %d%%", s.Resolved, s.Efficiency)
		case agents.SupplyAgentName:
			detail = fmt.Sprintf("%d monitored, %d alerts", s.Monitored, s.Alerts)
		}
		tw.AppendRow(table.Row{s.Name, s.Active, s.Processed, detail})
	}
	tw.Render()
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Inspect and run the task queue",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued tasks in run order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/tasks"
		if s, _ := cmd.Flags().GetString("status"); s != "" {
			path += "?status=" + url.QueryEscape(s)
		}
		var tl taskList
		if err := newClient().get(cmd.Context(), path, &tl); err != nil {
			return err
		}
		if len(tl.Tasks) == 0 {
			fmt.Println("No tasks queued.")
			return nil
		}
		tw := newTable()
		tw.AppendHeader(table.Row{"ID", "Type", "Priority", "Status", "Source", "Created", "Error"})
		for _, t := range tl.Tasks {
			tw.AppendRow(table.Row{t.ID, t.Type, t.Priority, t.Status, t.Source, t.CreatedAt.Format("15:04:05"), t.Error})
		}
		tw.Render()
		return nil
	},
}

var tasksProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Run pending tasks now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		var res struct {
			Processed int `json:"processed"`
		}
		if err := newClient().post(cmd.Context(), "/api/tasks/process?limit="+strconv.Itoa(limit), nil, &res); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Processed %d task(s).\n", res.Processed)
		return nil
	},
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Show and control agents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats []agents.Stats
		if err := newClient().get(cmd.Context(), "/api/agents", &stats); err != nil {
			return err
		}
		renderAgents(stats)
		return nil
	},
}

func agentControl(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " [name]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{}
			if len(args) == 1 {
				body["name"] = args[0]
			}
			var stats []agents.Stats
			if err := newClient().post(cmd.Context(), "/api/agents/"+action, body, &stats); err != nil {
				return err
			}
			renderAgents(stats)
			return nil
		},
	}
}

var (
	agentsStartCmd = agentControl("start", "Start one agent, or all of them")
	agentsStopCmd  = agentControl("stop", "Stop one agent, or all of them")
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent bus events, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		q := url.Values{"limit": {strconv.Itoa(limit)}}
		if t, _ := cmd.Flags().GetString("type"); t != "" {
			q.Set("type", t)
		}
		var evs []types.Event
		if err := newClient().get(cmd.Context(), "/api/events?"+q.Encode(), &evs); err != nil {
			return err
		}
		tw := newTable()
		tw.AppendHeader(table.Row{"Time", "Type", "Source", "ID"})
		for _, ev := range evs {
			tw.AppendRow(table.Row{ev.Timestamp.Format("15:04:05.000"), ev.Type, ev.Source, ev.ID})
		}
		tw.Render()
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <leads|tickets|inventory> <id>...",
	Short: "Run a workflow over many ids",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxConcurrent, _ := cmd.Flags().GetInt("max-concurrent")
		body := map[string]any{"kind": args[0], "ids": args[1:], "maxConcurrent": maxConcurrent}
		var res orchestrator.BatchResult
		if err := newClient().post(cmd.Context(), "/api/batch", body, &res); err != nil {
			return err
		}
		tw := newTable()
		tw.AppendHeader(table.Row{"Item", "Result"})
		for _, it := range res.Results {
			tw.AppendRow(table.Row{it.Item, "ok"})
		}
		for _, it := range res.Errors {
			tw.AppendRow(table.Row{it.Item, it.Error})
		}
		tw.AppendFooter(table.Row{"", fmt.Sprintf("%d ok, %d failed", len(res.Results), len(res.Errors))})
		tw.Render()
		return nil
	},
}
