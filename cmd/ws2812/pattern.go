package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-ws2812/internal/pattern"
	"github.com/coreman2200/funtimes-ws2812/internal/pixel"
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Play a test pattern until it completes or is interrupted",
	RunE:  runPattern,
}

func init() {
	f := patternCmd.Flags()
	f.String("kind", "", "index_sweep | rgb_channels | plane_z | chase | solid (default: config)")
	f.Int("fps", 0, "frames per second (default: config)")
	f.Int("rounds", 1, "repetitions for rgb_channels and chase")
	f.String("color", "", "color for chase and solid (default: config)")
}

func runPattern(cmd *cobra.Command, args []string) error {
	kindName, _ := cmd.Flags().GetString("kind")
	fps, _ := cmd.Flags().GetInt("fps")
	rounds, _ := cmd.Flags().GetInt("rounds")
	colorHex, _ := cmd.Flags().GetString("color")
	if kindName == "" {
		kindName = cfg.Pattern.Kind
	}
	if fps <= 0 {
		fps = cfg.Pattern.FPS
	}
	if colorHex == "" {
		colorHex = cfg.Pattern.Color
	}

	kind, err := pattern.ParseKind(kindName)
	if err != nil {
		return err
	}
	color, err := pixel.ParseColor(colorHex)
	if err != nil {
		return err
	}

	rig, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	defer rig.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l := &pattern.Looper{
		Runner: pattern.NewRunner(pattern.Plan{Kind: kind, Color: color, Rounds: rounds}),
		Layout: rig.layout,
		Order:  rig.order,
		FPS:    fps,
		Write:  func(buf []byte) ([]byte, error) { return rig.drv.Write(cfg.Pin, buf) },
		Log:    log.With().Str("component", "pattern").Logger(),
	}
	log.Info().Str("kind", string(kind)).Int("fps", fps).Int("leds", rig.layout.Count()).Msg("playing pattern")
	return l.Run(ctx)
}
