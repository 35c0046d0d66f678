package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/client"
	"github.com/evcraddock/species-catalog/internal/species"
)

func newEditCmd() *cobra.Command {
	var (
		flags          speciesFlags
		scientificName string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a species you added",
		Long:  "Change fields of a species. Only the flags you pass are updated. Only the author may edit.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, args[0], scientificName, flags)
		},
	}

	cmd.Flags().StringVar(&scientificName, "scientific-name", "", "scientific name")
	flags.register(cmd, "")

	return cmd
}

func runEdit(cmd *cobra.Command, arg, scientificName string, flags speciesFlags) error {
	id, err := parseID("species", arg)
	if err != nil {
		return err
	}

	var patch client.SpeciesPatch
	changed := cmd.Flags().Changed
	if changed("scientific-name") {
		patch.ScientificName = &scientificName
	}
	if changed("common-name") {
		patch.CommonName = &flags.commonName
	}
	if changed("population") {
		if flags.population < 0 {
			return errors.New("population must not be negative")
		}
		patch.TotalPopulation = &flags.population
	}
	if changed("kingdom") {
		if !species.ValidKingdom(flags.kingdom) {
			return fmt.Errorf("unknown kingdom %q", flags.kingdom)
		}
		patch.Kingdom = &flags.kingdom
	}
	if changed("description") {
		patch.Description = &flags.description
	}
	if changed("image") {
		patch.Image = &flags.image
	}
	if patch.Empty() {
		return errors.New("nothing to change, pass at least one field flag")
	}

	s, err := newAPIClient().UpdateSpecies(id, patch)
	if err != nil {
		return fmt.Errorf("updating species: %w", err)
	}

	if isJSON() {
		return printJSON(s)
	}

	fmt.Println("Species updated.")
	printSpeciesSummary(s)
	return nil
}
