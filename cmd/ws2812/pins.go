package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-ws2812/internal/pin"
)

var pinsCmd = &cobra.Command{
	Use:   "pins",
	Short: "List pin identifiers and the GPIO lines they select",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := pin.NodeMCU
		if len(cfg.Pins) > 0 {
			table = pin.Table(cfg.Pins)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PIN\tGPIO\t")
		for id, gpio := range table {
			mark := ""
			if id == cfg.Pin {
				mark = "*"
			}
			fmt.Fprintf(w, "%d%s\t%d\t\n", id, mark, gpio)
		}
		return w.Flush()
	},
}
