// Package cli wires the cobra commands for the copilot terminal client.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentinelops/copilot/internal/api"
	"github.com/sentinelops/copilot/internal/auth"
	"github.com/sentinelops/copilot/internal/cache"
	"github.com/sentinelops/copilot/internal/config"
	"github.com/sentinelops/copilot/internal/logging"
	"github.com/sentinelops/copilot/internal/render"
	"github.com/sentinelops/copilot/internal/session"
)

var (
	urlFlag string
	devFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "copilot",
	Short: "Terminal client for the security copilot",
	Long: `copilot - chat with the security copilot from the terminal

Keeps a local session model of your conversations and folders, synchronized
against the backend on startup, and renders structured triage decisions with
their agent traces.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return chatCmd.RunE(cmd, args)
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "Backend base URL (overrides COPILOT_URL)")
	rootCmd.PersistentFlags().BoolVar(&devFlag, "dev", false, "Verbose development logging")
}

// env bundles the wired client, stores, and logger for one command run.
type env struct {
	cfg    *config.Config
	log    *logging.Logger
	client *api.Client
	tokens *auth.Store
	store  *session.Store
}

func newEnv() (*env, error) {
	cfg := config.LoadOrDefault()
	if urlFlag != "" {
		cfg.Backend.BaseURL = urlFlag
	}

	logCfg := logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	}
	if devFlag {
		logCfg = logging.DevelopmentConfig()
	}
	log, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	tokens, err := auth.NewStore(cfg.Auth.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}

	client := api.New(api.Config{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.Timeout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
	}, log)

	token, err := tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	cachePath := cfg.Cache.Path
	if cachePath == "" {
		cachePath, err = cache.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("session cache: %w", err)
		}
	}

	store := session.New(client, cache.New(cachePath), log)
	store.SetRenderer(render.Decision)

	return &env{cfg: cfg, log: log, client: client, tokens: tokens, store: store}, nil
}

// bootstrap resyncs the session model. A rejected credential is discarded
// and reported as a login problem rather than retried.
func (e *env) bootstrap(ctx context.Context) error {
	err := e.store.Bootstrap(ctx)
	if err == nil {
		return nil
	}
	if api.IsAuth(err) {
		if clearErr := e.tokens.Clear(); clearErr != nil {
			e.log.Warn("could not clear rejected credential")
		}
		e.client.ClearToken()
		return fmt.Errorf("credential rejected by backend; run `copilot login` with a fresh token")
	}
	return fmt.Errorf("could not reach backend at %s: %w", e.cfg.Backend.BaseURL, err)
}
