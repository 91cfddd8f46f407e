package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glmctl/internal/ipc"
)

func newPowerCommand(ctx *commandContext) *cobra.Command {
	powerCmd := &cobra.Command{
		Use:   "power",
		Short: "Wake or shut down the monitor group",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	wakeCmd := &cobra.Command{
		Use:   "wake",
		Short: "Wake all monitors from standby",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.send(ipc.TypeWakeupAll, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wakeup sent")
			return nil
		},
	}

	sleepCmd := &cobra.Command{
		Use:   "sleep",
		Short: "Put all monitors into standby",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.send(ipc.TypeShutdownAll, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Shutdown sent")
			return nil
		},
	}

	pressCmd := &cobra.Command{
		Use:   "press",
		Short: "Simulate a power button press (behavior follows the daemon's action mode)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.send(ipc.TypePowerPress, nil); err != nil {
				return err
			}
			var status ipc.Status
			if err := ctx.fetch(ipc.TypeGetStatus, nil, &status); err != nil {
				return err
			}
			if status.PowerOn {
				fmt.Fprintln(cmd.OutOrStdout(), "Power: on")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Power: standby")
			}
			return nil
		},
	}

	powerCmd.AddCommand(wakeCmd, sleepCmd, pressCmd)
	return powerCmd
}

func newStayOnlineCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stay-online",
		Short: "Send a keepalive wakeup over the current connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.send(ipc.TypeStayOnline, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Keepalive sent")
			return nil
		},
	}
}
