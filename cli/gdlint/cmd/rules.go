package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gurvan/gdtools/lint"
)

var (
	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "Print the rule catalog, one rule per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, r := range lint.Rules() {
				fmt.Printf("%s\t%s\t%s\n", r.ID, r.Severity, r.Description)
			}
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(rulesCmd)
}
