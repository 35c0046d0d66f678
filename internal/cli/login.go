package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/client"
)

func newLoginCmd() *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an API key",
		Long:  "Opens a browser to authenticate and generate an API key for CLI access. The key is checked against the server before it is saved.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(server, os.Stdin, openBrowser)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")

	return cmd
}

func runLogin(serverFlag string, input io.Reader, open func(string) error) error {
	serverURL := strings.TrimRight(serverFlag, "/")
	if serverURL == "" {
		serverURL = getServerURL()
	}

	authURL := serverURL + "/cli/auth"

	fmt.Println("Opening browser for authentication...")
	fmt.Printf("If the browser doesn't open, visit: %s\n\n", authURL)

	if err := open(authURL); err != nil {
		fmt.Fprintf(os.Stderr, "Could not open browser: %v\n", err)
	}

	fmt.Print("Paste your API key: ")
	key, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}

	key = strings.TrimSpace(key)
	if err := validateAPIKey(key); err != nil {
		return err
	}

	me, err := client.New(serverURL, key).Me()
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		return errors.New("the server rejected this API key")
	case err != nil:
		fmt.Fprintf(os.Stderr, "warning: could not verify API key: %v\n", err)
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.APIKey = key
	if serverFlag != "" {
		cfg.ServerURL = serverURL
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if me != nil {
		fmt.Printf("✓ API key saved. Logged in as %s.\n", me.DisplayName)
		return nil
	}
	fmt.Println("✓ API key saved. You're logged in!")
	return nil
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, "sc_") {
		return fmt.Errorf("invalid API key format (should start with sc_)")
	}
	return nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
