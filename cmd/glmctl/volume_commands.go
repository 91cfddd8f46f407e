package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glmctl/internal/ipc"
)

func newVolumeCommand(ctx *commandContext) *cobra.Command {
	volumeCmd := &cobra.Command{
		Use:   "volume",
		Short: "Set or adjust the group volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <db>",
		Short: "Set the group volume to an absolute dB value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := parseFloatArg("volume", args[0])
			if err != nil {
				return err
			}
			if err := ctx.send(ipc.TypeSetVolumeDB, ipc.SetVolumeDB{DB: db}); err != nil {
				return err
			}
			return printVolume(cmd, ctx)
		},
	}

	percentCmd := &cobra.Command{
		Use:   "percent <0-100>",
		Short: "Set the group volume on the 0-100 display scale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := parseFloatArg("percentage", args[0])
			if err != nil {
				return err
			}
			if pct < 0 || pct > 100 {
				return fmt.Errorf("percentage %g out of range 0-100", pct)
			}
			if err := ctx.send(ipc.TypeSetVolumePercent, ipc.SetVolumePercent{Percent: pct}); err != nil {
				return err
			}
			return printVolume(cmd, ctx)
		},
	}

	upCmd := newVolumeStepCommand(ctx, "up", "Raise the group volume", +1)
	downCmd := newVolumeStepCommand(ctx, "down", "Lower the group volume", -1)

	volumeCmd.AddCommand(setCmd, percentCmd, upCmd, downCmd)
	return volumeCmd
}

func newVolumeStepCommand(ctx *commandContext, use, short string, sign float64) *cobra.Command {
	var stepDB float64
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if stepDB <= 0 {
				return fmt.Errorf("step must be positive, got %g", stepDB)
			}
			payload := ipc.AdjustVolumeDB{DeltaDB: sign * stepDB}
			if err := ctx.send(ipc.TypeAdjustVolumeDB, payload); err != nil {
				return err
			}
			return printVolume(cmd, ctx)
		},
	}
	cmd.Flags().Float64Var(&stepDB, "step", 1.0, "Step size in dB")
	return cmd
}

func printVolume(cmd *cobra.Command, ctx *commandContext) error {
	var status ipc.Status
	if err := ctx.fetch(ipc.TypeGetStatus, nil, &status); err != nil {
		return err
	}
	if status.Muted {
		fmt.Fprintf(cmd.OutOrStdout(), "Volume: %.1f dB (%.0f%%), muted\n", status.VolumeDB, status.VolumePct)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Volume: %.1f dB (%.0f%%)\n", status.VolumeDB, status.VolumePct)
	return nil
}
