// Package main implements the obsidian-search server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/taigrr/obsidian-search/internal/config"
	"github.com/taigrr/obsidian-search/internal/logging"
	"github.com/taigrr/obsidian-search/internal/vault"
)

var vaultService *vault.Service

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "obsidian-search [browse-root]",
		Short: "Browse, search and deep-link an Obsidian vault",
		Long: `obsidian-search serves a small web UI and JSON API for browsing a
directory of notes, running ranked full-text searches over it, and
opening results in Obsidian through obsidian:// deep links.

Paths are confined to the browse root unless --allow-any-path is set.`,
		Example: `obsidian-search ~/Obsidian
obsidian-search --vault-name Notes --port 8080 /vault
OBSIDIAN_HOST_PREFIX=/Users/me/Vault obsidian-search /vault`,
		Args: cobra.MaximumNArgs(1),
		RunE: runServer,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	config.RegisterFlags(flags)

	cmd.AddCommand(newMCPCmd())
	return cmd
}

// setup loads the configuration, builds the logger and initializes the
// vault service.
func setup(cmd *cobra.Command, args []string) (*config.Config, zerolog.Logger, error) {
	envErr := godotenv.Load()

	v := viper.New()
	config.SetDefaults(v)
	if err := config.Bind(v, cmd.Flags()); err != nil {
		return nil, zerolog.Nop(), err
	}
	if len(args) > 0 {
		v.Set("browse_root", args[0])
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if envErr != nil {
		logger.Debug().Msg("No .env file found")
	}

	vaultService, err = vault.New(cfg, logger)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to initialize vault: %w", err)
	}

	logger.Info().
		Str("root", vaultService.Root()).
		Bool("allow_any_path", vaultService.AllowAny()).
		Str("link_mode", vaultService.LinkMode().String()).
		Str("version", version).
		Msg("Vault ready")

	return cfg, logger, nil
}
