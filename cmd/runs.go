package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/propscan/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent scrape runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		db, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}

		runs, err := db.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}

		for _, run := range runs {
			fmt.Printf("%s  %s  sources=%d completed=%d failed=%d records=%d\n",
				run.ID,
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Sources, run.Completed, run.Failed, run.Records,
			)
			for _, note := range run.SourceNotes {
				fmt.Printf("    %s\n", note)
			}
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().Int("limit", 20, "maximum runs to show")
	rootCmd.AddCommand(runsCmd)
}
