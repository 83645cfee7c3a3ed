package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/atlasforge/craftchain/internal/craft/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve catalog queries over the Model Context Protocol",
	Long: `Run an MCP server speaking JSON-RPC over stdin/stdout. The server
exposes item lookup, bill of materials, cycle detection and catalog
statistics as tools. Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eng, closer, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer closer()

	server := mcp.NewServer(eng, slog.Default())
	slog.Info("starting MCP server", "db", cfg.DBPath)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "server stopped")
	return nil
}
