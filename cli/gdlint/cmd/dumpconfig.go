package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Gurvan/gdtools/config"
)

var (
	dumpConfigCmd = &cobra.Command{
		Use:   "dump-config",
		Short: "Print the default configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := config.DumpDefault()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
)

func init() {
	rootCmd.AddCommand(dumpConfigCmd)
}
