package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arturoeanton/storyline/internal/middleware"
	"github.com/arturoeanton/storyline/pkg/config"
	"github.com/arturoeanton/storyline/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "storyline",
		Short: "Storyline backend: activities, applications and AI essay guidance",
		Long: `Storyline serves the REST API for activities, applications, profile
and coaching chat, and keeps event embeddings in Postgres for matching
activities to application questions.

Running without a subcommand starts the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine; the environment may be set directly.
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newMatchCmd())
	root.AddCommand(newTokenCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API (and the MCP server when MCP_ENABLED=true)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, flush, err := setupWith((*config.Config).ValidateStore)
			if err != nil {
				return err
			}
			defer flush()

			d, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.pg.Migrate(cmd.Context(), cfg.EmbeddingDimension); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func newSyncCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Embed every new or edited event of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, flush, err := setup()
			if err != nil {
				return err
			}
			defer flush()

			d, err := build(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			res, err := d.embeddings.Sync(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newMatchCmd() *cobra.Command {
	var (
		userID    string
		question  string
		threshold float64
		topK      int
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Find the events of a user closest to a question",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, flush, err := setup()
			if err != nil {
				return err
			}
			defer flush()

			if !cmd.Flags().Changed("threshold") {
				threshold = cfg.MatchThreshold
			}
			if !cmd.Flags().Changed("top-k") {
				topK = cfg.MatchCount
			}

			d, err := build(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			matches, err := d.retriever.FindMatches(cmd.Context(), userID, question, threshold, topK)
			if err != nil {
				return err
			}
			return printJSON(cmd, matches)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owner user id")
	cmd.Flags().StringVar(&question, "question", "", "application question")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.3, "minimum similarity")
	cmd.Flags().IntVar(&topK, "top-k", 3, "maximum number of matches")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token for local testing with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.JWTSecret == "" {
				return errors.New("invalid configuration: JWT_SECRET is required")
			}
			token, err := middleware.SignToken(jwtConfig(cfg), userID, email, ttl)
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "subject user id")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// setup loads and fully validates configuration and installs the logger.
func setup() (*config.Config, func(), error) {
	return setupWith((*config.Config).Validate)
}

func setupWith(validate func(*config.Config) error) (*config.Config, func(), error) {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	flush, err := logger.Setup(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}
	return cfg, flush, nil
}

func runServe(ctx context.Context) error {
	cfg, flush, err := setup()
	if err != nil {
		return err
	}
	defer flush()

	slog.Info("starting Storyline",
		"port", cfg.Port,
		"ai_provider", cfg.AIProvider,
		"mcp_enabled", cfg.MCPEnabled,
		"version", version,
	)

	d, err := build(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(cfg, d)
	errc := make(chan error, 2)

	if d.mcp != nil {
		go func() {
			if err := d.mcp.Start(":" + cfg.MCPPort); err != nil {
				errc <- fmt.Errorf("mcp server: %w", err)
			}
		}()
	}
	go func() {
		slog.Info("fiber listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			errc <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if d.mcp != nil {
		if err := d.mcp.Shutdown(shutdownCtx); err != nil {
			slog.Warn("mcp shutdown failed", "error", err)
		}
	}
	return app.ShutdownWithContext(shutdownCtx)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
