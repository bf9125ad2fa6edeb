package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jward/sapling/internal/mcptools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve parse and query tools over MCP on stdio",
	Long:  "Run an MCP server on stdin/stdout exposing parse_file, query_file and list_grammars. All tool calls share one grammar cache.",
	Args:  usageArgs(cobra.NoArgs),
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(os.Stderr, "sapling: serving MCP tools on stdio")
	server := mcptools.NewServer(mcptools.NewService(sess.engine))
	if err := mcptools.RunStdio(ctx, server); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
