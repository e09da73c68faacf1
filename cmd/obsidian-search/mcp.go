package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp [browse-root]",
		Short: "Serve the vault as MCP tools over stdio",
		Long: `mcp exposes the list, search, link and read operations as Model
Context Protocol tools over stdin/stdout. Logs go to stderr.`,
		Example: `obsidian-search mcp ~/Obsidian`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	_, logger, err := setup(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "obsidian-search",
		Version: version,
	}, nil)

	registerTools(server)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		// stdin closing ends the session normally
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
			logger.Debug().Err(err).Msg("MCP server stopped")
			return nil
		}
		return fmt.Errorf("error running server: %w", err)
	}

	return nil
}
