package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current playback status",
	Long:  `Display the current track, progress, volume and play modes.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	state, err := newClient().Status(cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(state)
	}
	printState(os.Stdout, state)
	return nil
}
