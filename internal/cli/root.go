// Package cli defines the cobra command tree for species-catalog.
package cli

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/client"
	"github.com/evcraddock/species-catalog/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sc",
		Short:         "Browse and discuss a species catalog",
		Long:          "A species catalog. Browse and edit species, leave comments, ask the animal assistant, and compare animal speeds via CLI or web UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.species-catalog/species.db)")

	root.AddCommand(
		newAddCmd(),
		newListCmd(),
		newShowCmd(),
		newEditCmd(),
		newRemoveCmd(),
		newCommentCmd(),
		newCommentsCmd(),
		newUncommentCmd(),
		newAskCmd(),
		newSpeedsCmd(),
		newProfileCmd(),
		newServeCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag, then fallback, then
// the default path. Used by commands that work on the database directly.
func openDB(fallback string) (*sql.DB, error) {
	path := flagDB
	if path == "" {
		path = fallback
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the species-catalog API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}

// parseID parses a positive numeric ID argument.
func parseID(kind, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s ID: %s", kind, arg)
	}
	return id, nil
}
