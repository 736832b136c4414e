package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/purse/internal/common"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		common.LoadVersionFromFile()
		fmt.Fprintf(cmd.OutOrStdout(), "purse version %s (build %s, commit %s)\n",
			common.GetVersion(), common.GetBuild(), common.GetGitCommit())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
