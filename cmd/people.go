package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance/internal/config"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List enrolled people",
	RunE:  runPeople,
}

var removeCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a person from the gallery",
	Long: `Removes a person from the enrollment store. Their attendance history
is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(peopleCmd)
	rootCmd.AddCommand(removeCmd)
}

func runPeople(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	people, err := st.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list people: %w", err)
	}

	if len(people) == 0 {
		fmt.Println("No people enrolled")
		return nil
	}

	fmt.Printf("%-12s %-30s %-10s %s\n", "ID", "NAME", "ENROLLED", "PHOTO")
	for _, p := range people {
		enrolled := "no"
		if p.HasEmbedding() {
			enrolled = "yes"
		}
		fmt.Printf("%-12s %-30s %-10s %s\n", p.ID, p.Name, enrolled, p.PhotoPath)
	}
	fmt.Printf("\nTotal: %d\n", len(people))
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	id := args[0]
	cfg := config.Load()

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	person, err := st.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get person: %w", err)
	}
	if person == nil {
		return fmt.Errorf("person %s is not enrolled", id)
	}

	if err := st.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove person: %w", err)
	}

	fmt.Printf("Removed %s (%s)\n", person.Name, person.ID)
	return nil
}
