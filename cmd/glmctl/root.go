package main

import (
	"github.com/spf13/cobra"
)

const defaultSocketPath = "/tmp/glmctl.sock"

func newRootCommand() *cobra.Command {
	var socketFlag string

	ctx := &commandContext{socket: &socketFlag}

	rootCmd := &cobra.Command{
		Use:           "glmctl",
		Short:         "Control Genelec SAM monitors through the glmctld daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", defaultSocketPath, "Path to the glmctld daemon socket")

	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newVolumeCommand(ctx))
	rootCmd.AddCommand(newMuteCommand(ctx))
	rootCmd.AddCommand(newUnmuteCommand(ctx))
	rootCmd.AddCommand(newToggleMuteCommand(ctx))
	rootCmd.AddCommand(newPowerCommand(ctx))
	rootCmd.AddCommand(newStayOnlineCommand(ctx))
	rootCmd.AddCommand(newMonitorsCommand(ctx))
	rootCmd.AddCommand(newLEDCommand(ctx))
	rootCmd.AddCommand(newResetCommand(ctx))
	rootCmd.AddCommand(newConnectCommand(ctx))
	rootCmd.AddCommand(newDisconnectCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))

	return rootCmd
}

// commandContext carries the flags shared by every subcommand.
type commandContext struct {
	socket *string
}

func (c *commandContext) socketPath() string {
	if c.socket == nil || *c.socket == "" {
		return defaultSocketPath
	}
	return *c.socket
}
