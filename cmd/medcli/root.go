package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go-medicine-lookup/internal/config"
	"go-medicine-lookup/internal/container"
	"go-medicine-lookup/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "medcli",
	Short: "Look up medicines from the command line",
	Long: `medcli runs the same lookups as the HTTP API: reading a medicine name
from a package photo, suggesting brand names, resolving medicine information
and summarizing long label text.

Credentials are read from the environment (or a .env file):
  OPENFDA_API_KEY   - drug label registry
  OCR_SPACE_API_KEY - primary OCR provider
  HF_API_KEY        - fallback OCR provider and summarizer`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Indent JSON output")
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the container for a subcommand.
func setup(cmd *cobra.Command) (*container.Container, context.Context, context.CancelFunc, error) {
	level, _ := cmd.Flags().GetString("log-level")
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)
	// keep route debug output off stdout, which carries the JSON result
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	c, err := container.NewContainer(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	return c, ctx, func() {
		cancel()
		stop()
		c.Close()
	}, nil
}

func printJSON(cmd *cobra.Command, w io.Writer, v any) error {
	pretty, _ := cmd.Flags().GetBool("pretty")
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
