package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/okanacar/mailsink/pkg/journal"
	"github.com/okanacar/mailsink/pkg/severity"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Query the durable journal",
	Long:  `List journaled log entries, newest first, with optional filters.`,
	RunE:  runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringP("level", "l", "", "minimum severity level")
	logsCmd.Flags().String("source", "", "filter by source tag")
	logsCmd.Flags().String("since", "", "only entries newer than this duration (e.g. 24h)")
	logsCmd.Flags().IntP("limit", "n", 50, "maximum number of entries")
	logsCmd.Flags().Bool("json", false, "output as JSON")
}

func runLogs(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Storage.Enabled {
		return fmt.Errorf("journal is disabled (storage.enabled = false)")
	}

	filter := journal.Filter{}
	if levelName, _ := cmd.Flags().GetString("level"); levelName != "" {
		filter.MinLevel, err = severity.ParseLevel(levelName)
		if err != nil {
			return err
		}
	}
	filter.Source, _ = cmd.Flags().GetString("source")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	if since, _ := cmd.Flags().GetString("since"); since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			return fmt.Errorf("parse --since: %w", err)
		}
		filter.StartTime = time.Now().UTC().Add(-d)
	}

	jnl, err := journal.NewSQLite(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer jnl.Close()

	records, err := jnl.Query(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No journal entries match.")
		return nil
	}
	for _, r := range records {
		marker := " "
		if r.Retained {
			marker = "*"
		}
		fmt.Printf("%s %s [%-9s] %s: %s\n",
			marker, r.Time.Format(time.RFC3339), r.Level, r.Source, r.Message)
	}
	fmt.Printf("\n%d entries (* = retained for notification)\n", len(records))
	return nil
}
