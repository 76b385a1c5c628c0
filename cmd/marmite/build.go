package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var outDir string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Exports the site as static files",
	Long: `The build command fetches every recipe and writes the listing, one page
per recipe, the 404 page, sitemap, feed and stylesheet to the output
directory. The directory is emptied first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("failed to clean output directory %s: %w", outDir, err)
		}
		app := newApp()
		defer app.Close()
		return app.Export(cmd.Context(), outDir)
	},
}

func init() {
	buildCmd.Flags().StringVar(&outDir, "out", "out", "output directory")
}
