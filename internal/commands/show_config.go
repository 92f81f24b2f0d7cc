// internal/commands/show_config.go
package hogbench

import (
	"github.com/spf13/cobra"
)

// showConfigCmd prints the resolved configuration.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		appconfigShow(cmd)
	},
}

func init() {
	rootCmd.AddCommand(showConfigCmd)
}
