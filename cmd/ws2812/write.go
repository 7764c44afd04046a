package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-ws2812/internal/pixel"
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Send one buffer to the strip and print the transmitted bytes",
	Example: `  ws2812 write --pin 4 --hex 00ff00           # first LED red (GRB)
  ws2812 write --pin 3 --color 0000ff --count 10
  ws2812 write --hex ff0000ffffff --brightness 0.5`,
	RunE: runWrite,
}

func init() {
	f := writeCmd.Flags()
	f.String("hex", "", "raw bytes in wire order, hex encoded")
	f.String("color", "", "fill color as RRGGBB or RRGGBBWW")
	f.Int("count", 0, "LEDs to fill with --color (default: config count)")
	f.String("remap", "", "remap table as hex; \"clear\" drops the configured one")
}

func runWrite(cmd *cobra.Command, args []string) error {
	hexBuf, _ := cmd.Flags().GetString("hex")
	color, _ := cmd.Flags().GetString("color")
	count, _ := cmd.Flags().GetInt("count")
	remap, _ := cmd.Flags().GetString("remap")

	rig, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	defer rig.close()

	switch remap {
	case "":
	case "clear":
		rig.drv.ClearRemap()
	default:
		table, err := hex.DecodeString(remap)
		if err != nil {
			return fmt.Errorf("remap: %w", err)
		}
		rig.drv.SetRemap(table)
	}

	var buf []byte
	switch {
	case hexBuf != "" && color != "":
		return errors.New("use either --hex or --color")
	case hexBuf != "":
		buf, err = hex.DecodeString(strings.TrimPrefix(hexBuf, "0x"))
		if err != nil {
			return fmt.Errorf("hex: %w", err)
		}
	case color != "":
		c, err := pixel.ParseColor(color)
		if err != nil {
			return err
		}
		if count <= 0 {
			count = rig.layout.Count()
		}
		buf = pixel.Fill(c, count, rig.order)
	default:
		return errors.New("nothing to write: pass --hex or --color")
	}

	echo, err := rig.drv.Write(cfg.Pin, buf)
	if err != nil {
		return err
	}
	log.Debug().Int("bytes", len(echo)).Msg("written")
	fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(echo))
	return nil
}
