package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/config"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export attendance records to a CSV report",
	Long: `Writes a timestamped CSV report into the attendance directory (or
--out). The same filters as 'records' apply.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().Bool("today", false, "Only today's records")
	exportCmd.Flags().String("day", "", "Only records for the given day (YYYY-MM-DD)")
	exportCmd.Flags().String("person", "", "Only records for the given person ID")
	exportCmd.Flags().String("out", "", "Output directory (defaults to the attendance directory)")
}

func runExport(cmd *cobra.Command, args []string) error {
	filter, err := recordFilterFromFlags(cmd)
	if err != nil {
		return err
	}

	cfg := config.Load()
	outDir := mustGetString(cmd, "out")
	if outDir == "" {
		outDir = cfg.Attendance.AttendanceDir
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	path, count, err := attendance.ExportReport(context.Background(), outDir, st, filter)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d records to %s\n", count, path)
	return nil
}
