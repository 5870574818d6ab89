package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/attendance"
	"github.com/kozaktomas/attendance/internal/config"
	"github.com/kozaktomas/attendance/internal/engine"
	"github.com/kozaktomas/attendance/internal/store"
)

var registerCmd = &cobra.Command{
	Use:   "register [id] [name]",
	Short: "Enroll a person from a photo",
	Long: `Registers a person in the attendance gallery. The photo must contain
exactly one face. Registering an existing ID replaces the stored
embedding and photo.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().String("photo", "", "Path to the enrollment photo (required)")
	_ = registerCmd.MarkFlagRequired("photo")
}

func runRegister(cmd *cobra.Command, args []string) error {
	id := strings.TrimSpace(args[0])
	name := attendance.NormalizeName(strings.Join(args[1:], " "))
	photoPath := mustGetString(cmd, "photo")

	if id == "" || name == "" {
		return errors.New("id and name must not be empty")
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

	ctx := context.Background()
	person, err := enrollPerson(ctx, cfg, st, provider, id, name, photoPath)
	if err != nil {
		return err
	}

	fmt.Printf("Registered %s (%s)\n", person.Name, person.ID)
	fmt.Printf("  Photo: %s\n", person.PhotoPath)
	fmt.Printf("  Model: %s (%d dimensions)\n", person.Model, person.Dim)
	return nil
}

// enrollPerson detects the single face in the photo, copies the photo into
// the people directory and upserts the person. Shared with bulk enrollment.
func enrollPerson(ctx context.Context, cfg *config.Config, st store.PersonWriter, provider engine.Provider, id, name, photoPath string) (*store.Person, error) {
	data, err := os.ReadFile(photoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}

	prepared, err := engine.PrepareImage(data, cfg.Engine.MaxSide)
	if err != nil {
		return nil, fmt.Errorf("unsupported photo %s: %w", photoPath, err)
	}

	face, err := engine.DetectSingleFace(ctx, provider, prepared)
	if err != nil {
		return nil, fmt.Errorf("photo %s: %w", photoPath, err)
	}

	stored, err := copyEnrollmentPhoto(cfg.Attendance.PeopleDir, id, name, photoPath, data)
	if err != nil {
		return nil, err
	}

	person := &store.Person{
		ID:        id,
		Name:      name,
		PhotoPath: stored,
		Embedding: face.Embedding,
		Model:     cfg.Engine.Model,
		Dim:       len(face.Embedding),
	}
	if err := st.Save(ctx, person); err != nil {
		return nil, fmt.Errorf("failed to save person: %w", err)
	}
	return person, nil
}

// copyEnrollmentPhoto stores the photo as <id>_<safe name>.<ext> under the
// people directory. A photo already in place is left where it is.
func copyEnrollmentPhoto(dir, id, name, source string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create people directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(source))
	if ext == "" {
		ext = ".jpg"
	}
	target := filepath.Join(dir, fmt.Sprintf("%s_%s%s", id, attendance.SafeFileName(name), ext))

	if abs, err := filepath.Abs(source); err == nil {
		if absTarget, err := filepath.Abs(target); err == nil && abs == absTarget {
			return target, nil
		}
	}

	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store photo: %w", err)
	}
	return target, nil
}
