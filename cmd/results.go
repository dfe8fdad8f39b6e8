package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/gavelworks/appraise/internal/store"
)

var (
	resultsCategory string
	resultsLimit    int
	resultsOffset   int
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "List persisted valuation results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sink, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer sink.Close()

		if err := sink.Migrate(ctx); err != nil {
			return err
		}

		results, err := sink.ListResults(ctx, store.ResultFilter{
			Category: resultsCategory,
			Limit:    resultsLimit,
			Offset:   resultsOffset,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	resultsCmd.Flags().StringVar(&resultsCategory, "category", "", "filter by category")
	resultsCmd.Flags().IntVar(&resultsLimit, "limit", 50, "maximum results to return")
	resultsCmd.Flags().IntVar(&resultsOffset, "offset", 0, "results to skip")
	rootCmd.AddCommand(resultsCmd)
}
