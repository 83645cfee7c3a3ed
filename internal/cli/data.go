package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/atlasforge/craftchain/internal/craft/db"
	"github.com/atlasforge/craftchain/internal/craft/sync"
)

var importReplace bool

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a catalog dump",
	Long: `Import items and formulas from a JSON dump into the catalog. Existing
rows with matching ids are overwritten; --replace empties the catalog
first.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <file.json>",
	Short: "Export the catalog as a JSON dump",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "empty the catalog before importing")
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	database, err := db.OpenAndInit(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = database.Close() }()

	syncer := sync.NewSyncer(database)
	if importReplace {
		if err := syncer.ClearAll(ctx); err != nil {
			return err
		}
	}

	slog.Info("importing catalog dump", "file", args[0])
	res, err := syncer.ImportFromFile(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items and %d formulas\n", res.Items, res.Formulas)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	database, err := db.OpenAndInit(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if err := sync.NewSyncer(database).ExportToFile(ctx, args[0]); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported catalog to %s\n", args[0])
	return nil
}
