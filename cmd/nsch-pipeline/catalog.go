// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/nsch-pipeline/internal/catalog"
	"github.com/pdiddy/nsch-pipeline/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the record of completed conversions",
	Long: `Catalog manages the SQLite record of completed conversions. Use
subcommands to list conversions or export a YAML manifest.`,
}

// --- list subcommand ---

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded conversions",
	RunE:  runCatalogList,
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	store, err := catalog.Open(types.CatalogConfig{DataDir: dataDir(cmd)})
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No conversions recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-6s  %8s  %8s  %8s  %-20s  %s\n",
		"Year", "Rows", "Cols", "Recoded", "Converted", "Output")
	for _, r := range records {
		fmt.Fprintf(os.Stdout, "%-6d  %8d  %8d  %8d  %-20s  %s\n",
			r.Year, r.Rows, r.Columns,
			r.RecodedM+r.RecodedN+r.RecodedL+r.RecodedD,
			r.ConvertedAt.Format("2006-01-02 15:04:05"),
			r.OutputPath)
	}
	fmt.Fprintf(os.Stdout, "\n%d conversion(s)\n", len(records))
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog to a YAML manifest",
	RunE:  runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	store, err := catalog.Open(types.CatalogConfig{DataDir: dataDir(cmd)})
	if err != nil {
		return err
	}
	defer store.Close()

	path, err := store.ExportManifest(context.Background())
	if err != nil {
		return err
	}
	fmt.Println("Exported to", path)
	return nil
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
