package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gavelworks/appraise/internal/providers"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and their status",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := providers.BuildRegistry(cmd.Context(), cfg.Providers)
		if err != nil {
			return err
		}

		for _, st := range reg.Statuses() {
			state := "excluded"
			if st.Initialized {
				state = "loaded"
			}
			fmt.Printf("%-12s %-20s %s", st.ID, st.Name, state)
			if st.LastError != "" {
				fmt.Printf("  (%s)", st.LastError)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
