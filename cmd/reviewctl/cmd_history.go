package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"impactreview/internal/config"
	"impactreview/internal/store"
)

var (
	historyLimit int
	historyPRID  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or inspect past review runs",
	Long: `Reads the local review-history cache populated by "reviewctl review".

Example:
  reviewctl history
  reviewctl history --id pr-123`,
	RunE: runHistory,
}

func registerHistoryCmd(root *cobra.Command) {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries to list")
	historyCmd.Flags().StringVar(&historyPRID, "id", "", "Show only the most recent run for this correlation ID")
	root.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ws, err := resolveWorkspace()
	if err != nil {
		return err
	}
	cfg, err := config.Load(resolveConfigPath(ws))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	hs, err := store.NewHistoryStore(cfg.HistoryDBPath)
	if err != nil {
		return fmt.Errorf("open review history store: %w", err)
	}
	defer hs.Close()

	if historyPRID != "" {
		entry, err := hs.Get(ctx, historyPRID)
		if err != nil {
			return fmt.Errorf("get review history: %w", err)
		}
		if entry == nil {
			fmt.Printf("no review history found for %s\n", historyPRID)
			return nil
		}
		printHistoryEntry(*entry)
		return nil
	}

	entries, err := hs.List(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list review history: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("no review history yet")
		return nil
	}
	for _, entry := range entries {
		printHistoryEntry(entry)
	}
	return nil
}

func printHistoryEntry(entry store.HistoryEntry) {
	fmt.Printf("#%d  %s  %-9s  %s\n", entry.ID, entry.ReviewedAt, entry.Status, entry.PRID)
	if entry.Summary != "" {
		fmt.Printf("    %s\n", entry.Summary)
	}
	if len(entry.Result.Findings) > 0 {
		fmt.Printf("    %d finding(s)\n", len(entry.Result.Findings))
	}
}
