package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glmctl/internal/ipc"
)

func newMuteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mute [address]",
		Short: "Mute the group, or a single monitor by address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := ctx.send(ipc.TypeMute, nil); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Muted")
				return nil
			}
			addr, err := parseAddressArg(args[0])
			if err != nil {
				return err
			}
			if err := ctx.send(ipc.TypeMuteMonitor, ipc.MonitorTarget{Address: addr}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Muted monitor %d\n", addr)
			return nil
		},
	}
}

func newUnmuteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unmute [address]",
		Short: "Unmute the group, or a single monitor by address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if err := ctx.send(ipc.TypeUnmute, nil); err != nil {
					return err
				}
				return printVolume(cmd, ctx)
			}
			addr, err := parseAddressArg(args[0])
			if err != nil {
				return err
			}
			if err := ctx.send(ipc.TypeUnmuteMonitor, ipc.MonitorTarget{Address: addr}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unmuted monitor %d\n", addr)
			return nil
		},
	}
}

func newToggleMuteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle",
		Aliases: []string{"toggle-mute"},
		Short:   "Toggle the group mute state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.send(ipc.TypeToggleMute, nil); err != nil {
				return err
			}
			var status ipc.Status
			if err := ctx.fetch(ipc.TypeGetStatus, nil, &status); err != nil {
				return err
			}
			if status.Muted {
				fmt.Fprintln(cmd.OutOrStdout(), "Muted")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Unmuted, volume %.1f dB\n", status.VolumeDB)
			}
			return nil
		},
	}
}
