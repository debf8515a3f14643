package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hray3182/LifeLedger/internal/models"
	"github.com/hray3182/LifeLedger/internal/recurrence"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print the occurrences of an ad-hoc recurring rule",
		Example: `  ledger project --frequency MONTHLY --start 2024-01-31 --to 2024-12-31
  ledger project --rrule "DTSTART:20240101T000000Z
RRULE:FREQ=WEEKLY;INTERVAL=2" --to 2024-03-31`,
		RunE: runProject,
	}
	cmd.Flags().String("frequency", "MONTHLY", "DAILY, WEEKLY, MONTHLY or YEARLY")
	cmd.Flags().Int("interval", 1, "repeat every N periods")
	cmd.Flags().String("start", "", "first occurrence (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "last possible occurrence (YYYY-MM-DD)")
	cmd.Flags().String("rrule", "", "RFC 5545 rule; overrides frequency, interval, start and end")
	cmd.Flags().String("from", "", "list occurrences after this date (default: the day before start)")
	cmd.Flags().String("to", "", "list occurrences up to this date (default: one year after from)")
	cmd.Flags().Int("limit", 50, "maximum occurrences to print")
	cmd.Flags().String("amount", "0", "amount shown for each occurrence")
	return cmd
}

func runProject(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	frequency, _ := flags.GetString("frequency")
	interval, _ := flags.GetInt("interval")
	startStr, _ := flags.GetString("start")
	endStr, _ := flags.GetString("end")
	rruleStr, _ := flags.GetString("rrule")
	fromStr, _ := flags.GetString("from")
	toStr, _ := flags.GetString("to")
	limit, _ := flags.GetInt("limit")
	amountStr, _ := flags.GetString("amount")

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	rule := &models.RecurringTransaction{Amount: amount, Interval: interval}

	if rruleStr != "" {
		sched, err := recurrence.FromRRule(rruleStr)
		if err != nil {
			return err
		}
		rule.Frequency, rule.Interval = sched.Frequency, sched.Interval
		if sched.StartAt != nil {
			rule.StartAt = *sched.StartAt
		}
		rule.EndAt = sched.EndAt
	} else {
		if rule.Frequency, err = models.ParseFrequency(frequency); err != nil {
			return err
		}
	}
	if startStr != "" {
		if rule.StartAt, err = models.ParseDate(startStr); err != nil {
			return fmt.Errorf("invalid start: %w", err)
		}
	}
	if endStr != "" {
		end, err := models.ParseDate(endStr)
		if err != nil {
			return fmt.Errorf("invalid end: %w", err)
		}
		rule.EndAt = &end
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	from := rule.StartAt.AddDate(0, 0, -1)
	if fromStr != "" {
		if from, err = models.ParseDate(fromStr); err != nil {
			return fmt.Errorf("invalid from: %w", err)
		}
	}
	to := from.AddDate(1, 0, 0)
	if toStr != "" {
		if to, err = models.ParseDate(toStr); err != nil {
			return fmt.Errorf("invalid to: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n%s\n\n", recurrence.Describe(rule), recurrence.ToRRule(rule))

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT")
	for _, tx := range recurrence.Project(rule, from, to, limit) {
		fmt.Fprintf(w, "%s\t%s\n", tx.Date.Format(models.DateLayout), tx.Amount.StringFixed(2))
	}
	return w.Flush()
}
