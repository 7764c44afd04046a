package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-ws2812/internal/config"
)

var (
	configPath string
	logLevel   string
	logFormat  string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:          "ws2812",
	Short:        "Drive WS2812 LED strips by bit-banging a GPIO line",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		return loadConfig(cmd.Flags())
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "config.yaml", "path to config.yaml")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "console", "log format: console or json")
	pf.String("driver", "", "pin backend: periph | gpiocdev | sim")
	pf.Int("pin", 0, "pin identifier (index into the pin table)")
	pf.Float64("brightness", 0, "brightness factor applied to every byte")
	pf.String("color-order", "", "channel order, e.g. GRB or GRBW")
	pf.Bool("no-realtime", false, "do not raise the thread to SCHED_FIFO")

	rootCmd.AddCommand(writeCmd, patternCmd, serveCmd, pinsCmd)
}

func setupLogging() error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return fmt.Errorf("log level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	switch logFormat {
	case "json":
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	default:
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

// loadConfig reads config.yaml, then lets explicitly set flags win.
func loadConfig(flags *pflag.FlagSet) error {
	c, err := config.Load(configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		log.Debug().Str("path", configPath).Msg("no config file; using defaults")
	default:
		return err
	}

	overrideFromFlags(&c, flags)
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// overrideFromFlags copies every flag the user explicitly set into c. It
// runs at startup and again on each config reload.
func overrideFromFlags(c *config.Config, flags *pflag.FlagSet) {
	if flags.Changed("driver") {
		c.Driver, _ = flags.GetString("driver")
	}
	if flags.Changed("pin") {
		c.Pin, _ = flags.GetInt("pin")
	}
	if flags.Changed("brightness") {
		c.Brightness, _ = flags.GetFloat64("brightness")
	}
	if flags.Changed("color-order") {
		c.ColorOrder, _ = flags.GetString("color-order")
	}
	if flags.Changed("no-realtime") {
		off, _ := flags.GetBool("no-realtime")
		c.Realtime.Enabled = !off
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("ws2812")
		os.Exit(1)
	}
}
