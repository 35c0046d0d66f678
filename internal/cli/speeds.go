package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/chart"
)

func newSpeedsCmd() *cobra.Command {
	var svgPath string

	cmd := &cobra.Command{
		Use:   "speeds",
		Short: "Show the fastest animals per diet",
		Long:  "Print the animal speed comparison served by the web UI, optionally rendering the bar chart to an SVG file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSpeeds(svgPath)
		},
	}

	cmd.Flags().StringVar(&svgPath, "svg", "", "also write the bar chart to this SVG file")

	return cmd
}

func runSpeeds(svgPath string) error {
	animals, err := newAPIClient().SpeciesSpeed()
	if err != nil {
		return err
	}

	if svgPath != "" && len(animals) > 0 {
		if err := writeSpeedChart(svgPath, animals); err != nil {
			return err
		}
	}

	if isJSON() {
		return printJSON(animals)
	}

	if err := printSpeedTable(animals); err != nil {
		return err
	}
	if svgPath != "" && len(animals) > 0 {
		fmt.Printf("\nChart written to %s\n", svgPath)
	}
	return nil
}

func writeSpeedChart(path string, animals []chart.Animal) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing chart file: %w", cerr)
		}
	}()

	if err := chart.RenderSVG(f, animals); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}
