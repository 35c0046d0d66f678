package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/client"
	"github.com/evcraddock/species-catalog/internal/species"
)

func newListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List species",
		Long:  "List catalogued species, optionally filtered by kingdom or a name search.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Kingdom, "kingdom", "", "only species in this kingdom")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "search scientific and common names")

	return cmd
}

func runList(opts client.ListOptions) error {
	if opts.Kingdom != "" && !species.ValidKingdom(opts.Kingdom) {
		return fmt.Errorf("unknown kingdom %q", opts.Kingdom)
	}

	list, err := newAPIClient().ListSpecies(opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(list)
	}

	return printSpeciesTable(list)
}
