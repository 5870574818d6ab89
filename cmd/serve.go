package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/gallery"
	"github.com/kozaktomas/attendance/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Starts the attendance web server: enrollment and records over a JSON
API, frame uploads for browser-based capture and a live SSE event
stream.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if !cmd.Flags().Changed("port") && cfg.Web.Port != 0 {
		port = cfg.Web.Port
	}
	if !cmd.Flags().Changed("host") && cfg.Web.Host != "" {
		host = cfg.Web.Host
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	cfg.Web.Port, cfg.Web.Host = resolveServeHostPort(cmd, cfg)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, err := loadGallery(ctx, cfg, st)
	if err != nil {
		return err
	}
	fmt.Printf("Gallery loaded with %d people\n", g.Size())

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

	session := attendance.NewSession(provider, g, roster, st, csvLog, cfg.MatchThreshold())
	server := web.NewServer(cfg, st, g, provider, session)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("Starting attendance server on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	return serveUntilSignal(server, sigChan)
}

// serveUntilSignal runs the server until a signal arrives, then drains
// in-flight requests before returning.
func serveUntilSignal(server *web.Server, sig <-chan os.Signal) error {
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-sig
		fmt.Println("\nShutting down...")

		// Drain on a fresh context: Start returns as soon as Shutdown
		// begins, and a cancelled parent would cut the drain short.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	<-shutdownDone
	return nil
}
