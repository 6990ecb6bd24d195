package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/insights"
)

func (a *app) newStatsCmd() *cobra.Command {
	var (
		userID int64
		window string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show category totals for a window (month, last, all)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireUser(userID); err != nil {
				return err
			}
			preset, err := core.ParsePreset(window)
			if err != nil {
				return fmt.Errorf("invalid --window %q: must be month, last or all", window)
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			report, err := s.reports.Stats(cmd.Context(), userID, preset, a.now())
			if err != nil {
				return err
			}

			printf(cmd, "Stats for user %d: %s\n", userID, report.Label)
			if report.Summary.IsEmpty() {
				printf(cmd, "No expenses in this period.\n")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			for _, c := range report.Summary.ByCategory {
				fmt.Fprintf(tw, "%s\t%s\t\n", c.Name, c.Amount)
			}
			fmt.Fprintf(tw, "Total (%d)\t%s\t\n", report.Summary.Count, report.Summary.Total)
			if err := tw.Flush(); err != nil {
				return err
			}
			if report.HasPercent {
				printf(cmd, "Budget: %.1f%% of %s used\n", report.Percent, report.Budget)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Owner user id")
	cmd.Flags().StringVarP(&window, "window", "w", "month", "Window: month, last or all")
	return cmd
}

func (a *app) newForecastCmd() *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project a user's month-end spend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireUser(userID); err != nil {
				return err
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			p, err := s.reports.Forecast(cmd.Context(), userID, a.now())
			if errors.Is(err, core.ErrInsufficientData) {
				printf(cmd, "Not enough data to forecast for user %d.\n", userID)
				return nil
			}
			if err != nil {
				return err
			}
			return writeProjection(cmd, p)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Owner user id")
	return cmd
}

func writeProjection(cmd *cobra.Command, p insights.Projection) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Date\t%s (day %d of %d)\n", p.Now.Format("2006-01-02"), p.DaysPassed, p.DaysInMonth)
	fmt.Fprintf(tw, "Spent so far\t%s\n", p.VariableSpent)
	fmt.Fprintf(tw, "Fixed costs\t%s\n", p.FixedCosts)
	fmt.Fprintf(tw, "Daily average\t%s\n", p.DailyAverage)
	fmt.Fprintf(tw, "Projected total\t%s\n", p.ProjectedTotal)
	if p.HasBudget() {
		fmt.Fprintf(tw, "Budget\t%s\n", p.Budget)
		fmt.Fprintf(tw, "Difference\t%s\n", p.Difference)
		fmt.Fprintf(tw, "Safe daily spend\t%s\n", p.SafeDailySpend)
	}
	fmt.Fprintf(tw, "Status\t%s\n", p.Status)
	if p.Top != nil {
		fmt.Fprintf(tw, "Top drain\t%s (%s)\n", p.Top.Name, p.Top.Amount)
	}
	return tw.Flush()
}
