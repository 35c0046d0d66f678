package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/evcraddock/species-catalog/internal/auth"
	"github.com/evcraddock/species-catalog/internal/chart"
	"github.com/evcraddock/species-catalog/internal/chat"
	"github.com/evcraddock/species-catalog/internal/config"
	"github.com/evcraddock/species-catalog/internal/logging"
	"github.com/evcraddock/species-catalog/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		speedData  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI and API server",
		Long:  "Start the HTTP server for the web UI and the JSON API used by the other commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, speedData)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: $SC_CONFIG or ./sc.yaml)")
	cmd.Flags().StringVar(&speedData, "speed-data", "", "CSV of animal speeds for the chart (default: built-in sample)")

	return cmd
}

func runServe(ctx context.Context, configPath, speedData string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logCloser := logging.Setup(logging.Options{
		Dev:        cfg.Server.DevMode,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer func() {
		if cerr := logCloser.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing log file: %v\n", cerr)
		}
	}()

	database, err := openDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer closeDB(database)

	completer, err := chat.NewCompleter(cfg.Chat.Completer())
	if err != nil {
		return fmt.Errorf("configuring chat: %w", err)
	}
	if completer == nil {
		slog.Warn("chat assistant not configured, set an API key to enable it", "provider", cfg.Chat.Provider)
	}

	animals, err := loadSpeedData(speedData)
	if err != nil {
		return err
	}

	srv, err := web.NewServer(database, web.Options{
		Auth: auth.Config{
			SMTPHost: cfg.SMTP.Host,
			SMTPPort: cfg.SMTP.Port,
			SMTPUser: cfg.SMTP.User,
			SMTPPass: cfg.SMTP.Pass,
			SMTPFrom: cfg.SMTP.From,
			DevMode:  cfg.Server.DevMode,
			BaseURL:  cfg.Server.BaseURL,
		},
		Completer:   completer,
		ChatTimeout: cfg.Chat.Timeout,
		Animals:     animals,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Species catalog listening on %s\n", cfg.Server.BaseURL)
	return srv.ListenAndServe(ctx, cfg.Server.Addr())
}

// loadSpeedData reads the chart dataset from path. An empty path returns nil
// so the server falls back to its built-in sample.
func loadSpeedData(path string) ([]chart.Animal, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening speed data: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			slog.Warn("closing speed data", "error", cerr)
		}
	}()

	animals, err := chart.Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading speed data: %w", err)
	}
	return animals, nil
}
