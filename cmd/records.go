package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/store"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "View attendance records",
	Long: `Shows attendance records, newest first. Filter with --today, --day or
--person.`,
	RunE: runRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.Flags().Bool("today", false, "Only today's records")
	recordsCmd.Flags().String("day", "", "Only records for the given day (YYYY-MM-DD)")
	recordsCmd.Flags().String("person", "", "Only records for the given person ID")
}

// recordFilterFromFlags builds a store filter from the shared filter flags.
func recordFilterFromFlags(cmd *cobra.Command) (store.RecordFilter, error) {
	filter := store.RecordFilter{
		Day:      mustGetString(cmd, "day"),
		PersonID: mustGetString(cmd, "person"),
	}
	if mustGetBool(cmd, "today") {
		filter.Day = time.Now().Format(constants.DayLayout)
	}
	if filter.Day != "" {
		if _, err := time.Parse(constants.DayLayout, filter.Day); err != nil {
			return store.RecordFilter{}, fmt.Errorf("invalid day %q, expected YYYY-MM-DD", filter.Day)
		}
	}
	return filter, nil
}

func runRecords(cmd *cobra.Command, args []string) error {
	filter, err := recordFilterFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListRecords(context.Background(), filter)
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No attendance records found")
		return nil
	}

	fmt.Printf("%-12s %-30s %-12s %s\n", "ID", "NAME", "DATE", "TIME")
	for _, r := range records {
		fmt.Printf("%-12s %-30s %-12s %s\n", r.PersonID, r.Name, r.Day, r.ClockTime)
	}
	fmt.Printf("\nTotal: %d\n", len(records))
	return nil
}
