package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a species",
		Long:  "Remove a species you added, along with all its comments.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	id, err := parseID("species", args[0])
	if err != nil {
		return err
	}

	if err := newAPIClient().DeleteSpecies(id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{
			"id":      id,
			"removed": true,
		})
	}

	fmt.Printf("Species #%d removed.\n", id)
	return nil
}
