package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show species details",
		Long:  "Show full details for a species, including all comments.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseID("species", args[0])
	if err != nil {
		return err
	}

	resp, err := newAPIClient().GetSpecies(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(resp)
	}

	fmt.Println(resp.Species.Title())
	printSpeciesSummary(resp.Species)
	fmt.Println()
	fmt.Printf("Comments (%d):\n", len(resp.Comments))
	printCommentList(resp.Comments, time.Now())

	return nil
}
