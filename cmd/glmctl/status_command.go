package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glmctl/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the monitor group state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status ipc.Status
			if err := ctx.fetch(ipc.TypeGetStatus, nil, &status); err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Monitor Group", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range statusLines(status, colorize) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
}

func statusLines(status ipc.Status, colorize bool) []string {
	lines := make([]string, 0, 5)

	if status.Connected {
		lines = append(lines, renderStatusLine("Connection", statusOK,
			fmt.Sprintf("connected, %d monitors", status.MonitorCount), colorize))
	} else {
		lines = append(lines, renderStatusLine("Connection", statusWarn, "disconnected", colorize))
	}

	if status.PowerOn {
		lines = append(lines, renderStatusLine("Power", statusOK, "on", colorize))
	} else {
		lines = append(lines, renderStatusLine("Power", statusInfo, "standby", colorize))
	}

	lines = append(lines, renderStatusLine("Volume", statusInfo,
		fmt.Sprintf("%.1f dB (%.0f%%)", status.VolumeDB, status.VolumePct), colorize))

	if status.Muted {
		lines = append(lines, renderStatusLine("Mute", statusWarn, "muted", colorize))
	} else {
		lines = append(lines, renderStatusLine("Mute", statusOK, "unmuted", colorize))
	}

	lines = append(lines, renderStatusLine("Limits", statusInfo,
		fmt.Sprintf("ceiling %.1f dB, default %.1f dB", status.MaxVolumeDB, status.DefaultVolumeDB), colorize))

	return lines
}
