package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/profile"
)

// newProfileCmd groups profile administration. These commands open the
// database directly, so they run on the server host.
func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage user profiles",
		Long:  "Create, list and remove the profiles that can sign in, author species and post comments.",
	}

	cmd.AddCommand(
		newProfileAddCmd(),
		newProfileListCmd(),
		newProfileRemoveCmd(),
	)

	return cmd
}

func newProfileAddCmd() *cobra.Command {
	var bio string

	cmd := &cobra.Command{
		Use:   "add <email> <display name>",
		Short: "Create a profile",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var biography *string
			if cmd.Flags().Changed("bio") {
				biography = &bio
			}
			return runProfileAdd(cmd, args[0], strings.Join(args[1:], " "), biography)
		},
	}

	cmd.Flags().StringVar(&bio, "bio", "", "short biography")

	return cmd
}

func runProfileAdd(cmd *cobra.Command, email, name string, biography *string) error {
	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	p, err := profile.NewRepository(database).Create(cmd.Context(), email, name, biography)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(p)
	}

	fmt.Printf("Profile created: %s <%s>\n  ID: %s\n", p.DisplayName, p.Email, p.ID)
	return nil
}

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileList(cmd)
		},
	}
}

func runProfileList(cmd *cobra.Command) error {
	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	profiles, err := profile.NewRepository(database).List(cmd.Context())
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(profiles)
	}

	if len(profiles) == 0 {
		fmt.Println("No profiles.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ID\tEMAIL\tNAME"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	if _, err := fmt.Fprintln(w, "--\t-----\t----"); err != nil {
		return fmt.Errorf("writing table separator: %w", err)
	}
	for _, p := range profiles {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Email, truncate(p.DisplayName, 30)); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	return w.Flush()
}

func newProfileRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove a profile",
		Long:  "Remove a profile. Its comments stay and show an unknown author. Profiles that still author species cannot be removed.",
		Args:  cobra.ExactArgs(1),
		RunE:  runProfileRemove,
	}
}

func runProfileRemove(cmd *cobra.Command, args []string) error {
	database, err := openDB("")
	if err != nil {
		return err
	}
	defer closeDB(database)

	repo := profile.NewRepository(database)
	p, err := repo.GetByEmail(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := repo.Delete(cmd.Context(), p.ID); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{
			"id":      p.ID,
			"removed": true,
		})
	}

	fmt.Printf("Profile %s removed.\n", p.Email)
	return nil
}
