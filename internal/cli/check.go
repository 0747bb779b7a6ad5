package cli

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one rate check and alert if the threshold is crossed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RunCheck(cmd.Context())
	},
}
