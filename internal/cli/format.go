package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/evcraddock/species-catalog/internal/chart"
	"github.com/evcraddock/species-catalog/internal/comment"
	"github.com/evcraddock/species-catalog/internal/species"
)

// printJSON marshals v as indented JSON and writes it to stdout.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSpeciesSummary prints a single species in text format.
func printSpeciesSummary(s *species.Species) {
	fmt.Printf("Species #%d\n", s.ID)
	fmt.Printf("  Scientific:  %s\n", s.ScientificName)
	if s.CommonName != nil {
		fmt.Printf("  Common:      %s\n", *s.CommonName)
	}
	fmt.Printf("  Kingdom:     %s\n", s.Kingdom)
	if s.TotalPopulation != nil {
		fmt.Printf("  Population:  %s\n", species.FormatPopulation(*s.TotalPopulation))
	}
	if s.Description != nil {
		fmt.Printf("  Description: %s\n", *s.Description)
	}
	if s.Image != nil {
		fmt.Printf("  Image:       %s\n", *s.Image)
	}
}

// printSpeciesTable prints a list of species as a formatted table.
func printSpeciesTable(list []*species.Species) error {
	if len(list) == 0 {
		fmt.Println("No species found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tSCIENTIFIC NAME\tCOMMON NAME\tKINGDOM\tPOPULATION"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t---------------\t-----------\t-------\t----------"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}

	for _, s := range list {
		common := "-"
		if s.CommonName != nil {
			common = truncate(*s.CommonName, 30)
		}
		population := "-"
		if s.TotalPopulation != nil {
			population = species.FormatPopulation(*s.TotalPopulation)
		}

		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			s.ID, truncate(s.ScientificName, 40), common, s.Kingdom, population); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	fmt.Printf("\nTotal: %d species\n", len(list))
	return nil
}

// printCommentList prints comments in text format, newest first as served.
func printCommentList(comments []comment.EnrichedComment, now time.Time) {
	if len(comments) == 0 {
		fmt.Println("No comments yet.")
		return
	}

	for _, c := range comments {
		fmt.Printf("[%s] #%d (%s)\n  %s\n\n",
			comment.RelativeTime(c.CreatedAt, now), c.ID, c.DisplayName(), c.Content)
	}
}

// printCommentSingle prints a newly added comment in text format.
func printCommentSingle(c *comment.EnrichedComment) {
	fmt.Printf("Comment #%d added.\n  %s\n", c.ID, c.Content)
}

// printSpeedTable prints the chart selection as a table.
func printSpeedTable(animals []chart.Animal) error {
	if len(animals) == 0 {
		fmt.Println("No speed data available.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ANIMAL\tSPEED (KM/H)\tDIET"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "------\t------------\t----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, a := range animals {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", truncate(a.Name, 30), formatSpeed(a.Speed), a.Diet.Label()); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

// formatSpeed drops a trailing ".0" from whole speeds.
func formatSpeed(kmh float64) string {
	return strings.TrimSuffix(fmt.Sprintf("%.1f", kmh), ".0")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
