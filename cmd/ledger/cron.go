package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
)

func cronCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cron",
		Short: "Recurring transaction jobs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Materialize due recurring transactions once and print the summary",
		RunE:  runCron,
	})
	return cmd
}

func runCron(cmd *cobra.Command, _ []string) error {
	db, err := openDB(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	processor, err := newProcessor(db)
	if err != nil {
		return err
	}
	summary, runErr := processor.Run(cmd.Context())

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if summary.Errors > 0 {
		return errors.New("some recurring transactions failed")
	}
	return nil
}
