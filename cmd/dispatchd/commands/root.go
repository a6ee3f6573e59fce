// Package commands implements the dispatchd command tree.
package commands

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "dispatchd",
	Short: "Emergency patient dispatch over parallel hospital calls",
	Long: `dispatchd broadcasts one emergency patient case to multiple hospitals
over simultaneous phone calls, collects each hospital's accept or reject
answer, and reports the outcome to a callback URL.

Answered calls are handled by one of two variants:
  ai       bridge the call onto a live model conversation (default)
  keypad   play a spoken menu and read a single digit

Secrets may be supplied through the environment instead of the config
file: GEMINI_API_KEY and TWILIO_AUTH_TOKEN override their file values.

Examples:
  dispatchd serve --config /etc/dispatchd/config.yaml
  dispatchd version`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
