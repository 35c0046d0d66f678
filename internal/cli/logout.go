package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	var forgetServer bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored API key",
		Long:  "Removes the stored API key from the config file. The key stays valid on the server until revoked in Settings.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(forgetServer)
		},
	}

	cmd.Flags().BoolVar(&forgetServer, "forget-server", false, "also remove the saved server URL")

	return cmd
}

func runLogout(forgetServer bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.APIKey == "" && (!forgetServer || cfg.ServerURL == "") {
		fmt.Println("Not logged in.")
		return nil
	}

	cfg.APIKey = ""
	if forgetServer {
		cfg.ServerURL = ""
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("✓ Logged out. API key removed.")
	return nil
}
