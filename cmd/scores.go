package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sells-group/propscan/internal/store"
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Show persisted review scores",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(cmd.Context()); err != nil {
			return err
		}

		scores, err := db.LoadScores(cmd.Context())
		if err != nil {
			return err
		}

		domains := make([]string, 0, len(scores))
		for d := range scores {
			domains = append(domains, d)
		}
		sort.Strings(domains)

		for _, d := range domains {
			fmt.Printf("%-40s %s\n", d, scores[d])
		}
		fmt.Printf("%d domains\n", len(domains))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoresCmd)
}
