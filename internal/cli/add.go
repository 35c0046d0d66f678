package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/species"
)

// speciesFlags binds the editable species fields to command flags.
type speciesFlags struct {
	commonName  string
	population  int64
	kingdom     string
	description string
	image       string
}

func (f *speciesFlags) register(cmd *cobra.Command, defaultKingdom string) {
	cmd.Flags().StringVar(&f.commonName, "common-name", "", "common name")
	cmd.Flags().Int64Var(&f.population, "population", 0, "estimated total population")
	cmd.Flags().StringVar(&f.kingdom, "kingdom", defaultKingdom, "kingdom ("+kingdomList()+")")
	cmd.Flags().StringVar(&f.description, "description", "", "free-text description")
	cmd.Flags().StringVar(&f.image, "image", "", "image URL")
}

func kingdomList() string {
	names := make([]string, len(species.Kingdoms))
	for i, k := range species.Kingdoms {
		names[i] = string(k)
	}
	return strings.Join(names, "|")
}

func newAddCmd() *cobra.Command {
	var flags speciesFlags

	cmd := &cobra.Command{
		Use:   "add <scientific name>",
		Short: "Add a species",
		Long:  "Add a species to the catalog. You become its author and the only one who can edit it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd, strings.Join(args, " "), flags)
		},
	}

	flags.register(cmd, string(species.KingdomAnimalia))

	return cmd
}

func runAdd(cmd *cobra.Command, name string, flags speciesFlags) error {
	in := species.Input{
		ScientificName: name,
		Kingdom:        species.Kingdom(flags.kingdom),
	}
	if cmd.Flags().Changed("common-name") {
		in.CommonName = &flags.commonName
	}
	if cmd.Flags().Changed("population") {
		in.TotalPopulation = &flags.population
	}
	if cmd.Flags().Changed("description") {
		in.Description = &flags.description
	}
	if cmd.Flags().Changed("image") {
		in.Image = &flags.image
	}

	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	s, err := newAPIClient().AddSpecies(in)
	if err != nil {
		return fmt.Errorf("adding species: %w", err)
	}

	if isJSON() {
		return printJSON(s)
	}

	fmt.Println("Species added successfully!")
	printSpeciesSummary(s)
	return nil
}
