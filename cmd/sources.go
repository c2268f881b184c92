package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/propscan/internal/config"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Validate and list the source catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("sources")
		if path == "" {
			path = cfg.Scrape.SourcesPath
		}

		sources, err := config.LoadSources(path)
		if err != nil {
			return err
		}

		for _, src := range sources {
			mode := "http"
			if src.NeedsBrowser() {
				mode = fmt.Sprintf("browser (%d passes)", len(src.Passes))
			}
			fmt.Printf("%-30s %-30s %-20s fallback=%d\n",
				src.Name, src.Domain(), mode, len(src.Fallback))
		}
		fmt.Printf("%d sources ok\n", len(sources))
		return nil
	},
}

func init() {
	sourcesCmd.Flags().String("sources", "", "path to the source catalog (defaults to config)")
	rootCmd.AddCommand(sourcesCmd)
}
