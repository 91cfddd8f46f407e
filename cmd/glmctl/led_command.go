package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glmctl/internal/glm"
	"glmctl/internal/ipc"
)

func newLEDCommand(ctx *commandContext) *cobra.Command {
	var pulsing bool
	cmd := &cobra.Command{
		Use:   "led <address> <green|red|yellow|off>",
		Short: "Set one monitor's front-panel LED",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseAddressArg(args[0])
			if err != nil {
				return err
			}
			// Reject bad colors locally so a typo does not round-trip.
			if _, err := glm.ParseLEDColor(args[1]); err != nil {
				return err
			}
			payload := ipc.SetLED{Address: addr, Color: args[1], Pulsing: pulsing}
			if err := ctx.send(ipc.TypeSetLED, payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "LED on monitor %d set to %s\n", addr, args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&pulsing, "pulse", false, "Pulse the LED instead of steady light")
	return cmd
}
