package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Kitrop/workflow/internal/cli/formatter"
	"github.com/Kitrop/workflow/internal/report"
)

func newReportCmd(app *App, actor actorFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Reports, timelines and the scorecard",
	}
	cmd.AddCommand(
		newReportSeriesCmd(app, actor),
		newReportGanttCmd(app, actor),
		newReportScorecardCmd(app, actor),
		newReportBrowseCmd(app, actor),
	)
	return cmd
}

func newReportSeriesCmd(app *App, actor actorFunc) *cobra.Command {
	var wf windowFlags

	metricNames := make([]string, 0, len(report.Metrics))
	for _, m := range report.Metrics {
		metricNames = append(metricNames, string(m))
	}

	cmd := &cobra.Command{
		Use:       "series <metric>",
		Short:     "Aggregate one metric over a date window",
		Args:      cobra.ExactArgs(1),
		ValidArgs: metricNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			metric, err := report.ParseMetric(args[0])
			if err != nil {
				return err
			}
			w, err := wf.window()
			if err != nil {
				return err
			}
			series, err := app.Reports.Series(ctx, report.Request{Actor: a, Metric: metric, Window: w})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderSeries(metric.Title(), w, series))
			return nil
		},
	}
	wf.register(cmd.Flags())
	return cmd
}

func newReportGanttCmd(app *App, actor actorFunc) *cobra.Command {
	var wf windowFlags
	var user string

	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Show one user's task periods on a timeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			w, err := wf.window()
			if err != nil {
				return err
			}
			userID, err := resolveUserID(ctx, app, user)
			if err != nil {
				return err
			}
			intervals, err := app.Reports.Timeline(ctx, a, userID, w)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderGantt("Timeline: "+user, w, intervals))
			return nil
		},
	}
	wf.register(cmd.Flags())
	cmd.Flags().StringVar(&user, "user", "", "user whose tasks to show")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newReportScorecardCmd(app *App, actor actorFunc) *cobra.Command {
	var wf windowFlags

	cmd := &cobra.Command{
		Use:   "scorecard",
		Short: "Rank assignees by normalized tasks, lines of code and story points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := actor(ctx)
			if err != nil {
				return err
			}
			w, err := wf.window()
			if err != nil {
				return err
			}
			rows, err := app.Reports.Scorecard(ctx, report.Request{Actor: a, Window: w})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderScorecard(w, rows))
			return nil
		},
	}
	wf.register(cmd.Flags())
	return cmd
}
