package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/config"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show per-person attendance totals",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	summaries, err := st.Summaries(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load summaries: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No attendance records found")
		return nil
	}

	fmt.Printf("%-12s %-30s %-6s %-12s %s\n", "ID", "NAME", "DAYS", "FIRST", "LAST")
	for _, s := range summaries {
		fmt.Printf("%-12s %-30s %-6d %-12s %s\n", s.PersonID, s.Name, s.DaysPresent, s.FirstSeen, s.LastSeen)
	}
	return nil
}
