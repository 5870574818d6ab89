package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/camera"
	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/constants"
	"github.com/kozaktomas/attendance/internal/gallery"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an attendance session against a camera or frame folder",
	Long: `Starts the attendance loop: frames are matched against the enrolled
gallery and each person's first sighting of the day is recorded.
Frames come from an MJPEG camera stream (--camera) or a directory of
images (--folder). Stop with Ctrl+C.`,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("camera", "", "MJPEG stream URL, e.g. http://cam:8080/stream")
	runCmd.Flags().String("folder", "", "Directory of frame images to process")
	runCmd.Flags().Int("interval", constants.DefaultFrameIntervalMs, "Milliseconds between processed camera frames")
	runCmd.Flags().Float64("threshold", 0, "Match distance threshold (0 uses the model default)")
}

func runSession(cmd *cobra.Command, args []string) error {
	streamURL := mustGetString(cmd, "camera")
	folder := mustGetString(cmd, "folder")
	interval := mustGetInt(cmd, "interval")
	threshold := mustGetFloat64(cmd, "threshold")

	if (streamURL == "") == (folder == "") {
		return errors.New("exactly one of --camera or --folder is required")
	}

	cfg := config.Load()
	if threshold == 0 {
		threshold = cfg.MatchThreshold()
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nStopping session...")
		cancel()
	}()

	g, err := loadGallery(ctx, cfg, st)
	if err != nil {
		return err
	}
	if g.Size() == 0 {
		return errors.New("nobody is enrolled, run 'attendance register' first")
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	roster := gallery.NewRoster()
	marked, err := st.MarkedOn(ctx, roster.Day())
	if err != nil {
		return fmt.Errorf("failed to load today's roster: %w", err)
	}
	roster.Seed(marked)

	csvLog, err := attendance.NewCSVLog(cfg.Attendance.AttendanceDir)
	if err != nil {
		return err
	}

	var source camera.Source
	if streamURL != "" {
		source, err = camera.NewMJPEGSource(ctx, streamURL, time.Duration(interval)*time.Millisecond)
		if err != nil {
			return fmt.Errorf("failed to open camera stream: %w", err)
		}
	} else {
		fs, err := camera.NewFolderSource(folder)
		if err != nil {
			return fmt.Errorf("failed to open frame folder: %w", err)
		}
		fmt.Printf("Processing %d frames from %s\n", fs.Len(), folder)
		source = fs
	}
	defer source.Close()

	fmt.Printf("Gallery: %d people, threshold %.2f, %d already marked today\n", g.Size(), threshold, roster.Count())

	session := attendance.NewSession(provider, g, roster, st, csvLog, threshold)
	if err := session.Run(ctx, source); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	fmt.Printf("Session over, %d people marked present on %s\n", roster.Count(), roster.Day())
	return nil
}
