package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/constants"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [directory]",
	Short: "Bulk enroll people from a photo directory",
	Long: `Enrolls everyone in a directory of photos named <id>_<name>.<ext>,
for example "s001_alice_smith.jpg". Photos without exactly one face
are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().Int("concurrency", constants.DefaultEnrollWorkers, "Number of photos to process in parallel")
	enrollCmd.Flags().Bool("skip-existing", false, "Skip IDs that are already enrolled")
}

// parseEnrollFilename splits "s001_alice_smith.jpg" into ID and display name.
func parseEnrollFilename(path string) (id, name string, ok bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.SplitN(base, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	name = strings.Join(strings.Split(parts[1], "_"), " ")
	return parts[0], attendance.TitleName(name), true
}

func runEnroll(cmd *cobra.Command, args []string) error {
	dir := args[0]
	concurrency := mustGetInt(cmd, "concurrency")
	skipExisting := mustGetBool(cmd, "skip-existing")
	if concurrency < 1 {
		concurrency = 1
	}

	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	provider, err := newProvider(cfg)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	type job struct {
		id, name, path string
	}
	var jobs []job
	var badNames []string
	ctx := context.Background()

	for _, entry := range entries {
		if entry.IsDir() || !isEnrollImage(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		id, name, ok := parseEnrollFilename(path)
		if !ok {
			badNames = append(badNames, entry.Name())
			continue
		}
		if skipExisting {
			exists, err := st.Has(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to check person %s: %w", id, err)
			}
			if exists {
				continue
			}
		}
		jobs = append(jobs, job{id: id, name: name, path: path})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].id < jobs[j].id })

	for _, name := range badNames {
		fmt.Printf("Skipping %s: file name must be <id>_<name>.<ext>\n", name)
	}
	if len(jobs) == 0 {
		fmt.Println("Nothing to enroll")
		return nil
	}

	fmt.Printf("Enrolling %d people from %s\n\n", len(jobs), dir)

	bar := progressbar.NewOptions(len(jobs),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var successCount, errorCount int
	var failures []string
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, j := range jobs {
		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			_, err := enrollPerson(ctx, cfg, st, provider, j.id, j.name, j.path)

			mu.Lock()
			if err != nil {
				errorCount++
				failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(j.path), err))
			} else {
				successCount++
			}
			mu.Unlock()
			bar.Add(1)
		}(j)
	}
	wg.Wait()
	fmt.Println()

	for _, f := range failures {
		fmt.Printf("Failed %s\n", f)
	}
	fmt.Printf("\nEnrolled: %d, failed: %d\n", successCount, errorCount)
	if errorCount > 0 {
		return fmt.Errorf("%d photos could not be enrolled", errorCount)
	}
	return nil
}

func isEnrollImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return true
	}
	return false
}
