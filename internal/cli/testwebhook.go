package cli

import (
	"github.com/spf13/cobra"
)

var testWebhookCmd = &cobra.Command{
	Use:   "test-webhook",
	Short: "Send a test notification to verify the webhook",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().TestWebhook(cmd.Context())
	},
}
