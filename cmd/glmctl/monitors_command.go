package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"glmctl/internal/glm"
	"glmctl/internal/ipc"
)

func newMonitorsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "monitors",
		Short: "List the monitors discovered on the GLM bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var monitors []glm.Monitor
			if err := ctx.fetch(ipc.TypeGetMonitors, nil, &monitors); err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()

			if jsonOutput {
				data, err := json.MarshalIndent(monitors, "", "  ")
				if err != nil {
					return fmt.Errorf("encode monitors: %w", err)
				}
				fmt.Fprintln(stdout, string(data))
				return nil
			}

			if len(monitors) == 0 {
				fmt.Fprintln(stdout, "No monitors discovered")
				return nil
			}

			rows := buildMonitorRows(monitors)

			// Pretty table on a terminal, tab-separated for pipes.
			if shouldColorize(stdout) {
				fmt.Fprintln(stdout, renderTable(
					[]string{"Address", "Model", "Serial"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft},
				))
				return nil
			}
			for _, row := range rows {
				fmt.Fprintln(stdout, strings.Join(row, "\t"))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the monitor list as JSON")
	return cmd
}

func buildMonitorRows(monitors []glm.Monitor) [][]string {
	rows := make([][]string, 0, len(monitors))
	for _, m := range monitors {
		serial := m.Serial
		if serial == "" {
			serial = "-"
		}
		rows = append(rows, []string{strconv.Itoa(m.Address), m.Name, serial})
	}
	return rows
}
