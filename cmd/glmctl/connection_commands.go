package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glmctl/internal/ipc"
)

func newConnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect to the GLM adapter and discover monitors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.send(ipc.TypeConnect, nil); err != nil {
				return err
			}
			var status ipc.Status
			if err := ctx.fetch(ipc.TypeGetStatus, nil, &status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected, %d monitors\n", status.MonitorCount)
			return nil
		},
	}
}

func newDisconnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect from the GLM adapter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.send(ipc.TypeDisconnect, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
			return nil
		},
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the group volume to the configured default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.send(ipc.TypeResetDefault, nil); err != nil {
				return err
			}
			return printVolume(cmd, ctx)
		},
	}
}
