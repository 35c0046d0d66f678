package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and auth status",
		Long:  "Tests the connection to the server and checks if the stored API key is valid.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg := resolveConfig()

	fmt.Printf("Server:  %s\n", cfg.ServerURL)

	if cfg.APIKey == "" {
		fmt.Println("API Key: not configured")
		fmt.Println("\nRun 'sc login' to authenticate.")
		return nil
	}

	prefix := cfg.APIKey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	fmt.Printf("API Key: %s…\n", prefix)

	me, err := client.New(cfg.ServerURL, cfg.APIKey).Me()
	var apiErr *client.APIError
	switch {
	case err == nil:
		fmt.Printf("Status:  ✓ connected as %s <%s>\n", me.DisplayName, me.Email)
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		fmt.Println("Status:  ✗ invalid API key")
		fmt.Println("\nRun 'sc login' to re-authenticate.")
	case errors.As(err, &apiErr):
		fmt.Printf("Status:  ✗ unexpected response (%d)\n", apiErr.StatusCode)
	default:
		fmt.Printf("Status:  ✗ cannot reach server (%v)\n", err)
	}

	return nil
}
