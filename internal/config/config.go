package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Calibration struct {
	ClockHz        int64   `yaml:"clock_hz"`
	CyclesPerWrite int     `yaml:"cycles_per_write"`
	UnitNs         float64 `yaml:"unit_ns"`
}

type Realtime struct {
	Enabled  bool `yaml:"enabled"`
	Priority int  `yaml:"priority"`
}

type Layout struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Panels     int  `yaml:"panels"`
	Serpentine bool `yaml:"serpentine"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

type Pattern struct {
	Kind  string `yaml:"kind"`
	FPS   int    `yaml:"fps"`
	Color string `yaml:"color"`
}

type Config struct {
	Driver     string  `yaml:"driver"` // "periph" | "gpiocdev" | "sim"
	Chip       string  `yaml:"chip"`   // gpiocdev only
	Pin        int     `yaml:"pin"`
	Pins       []int   `yaml:"pins,omitempty"`
	Brightness float64 `yaml:"brightness"`
	ColorOrder string  `yaml:"color_order"`
	Count      int     `yaml:"count"`
	SettleUs   int     `yaml:"settle_us"`

	Calibration Calibration `yaml:"calibration"`
	Realtime    Realtime    `yaml:"realtime"`
	Layout      *Layout     `yaml:"layout,omitempty"`
	Server      Server      `yaml:"server"`
	Redis       Redis       `yaml:"redis"`
	Pattern     Pattern     `yaml:"pattern"`
}

// Default is used for anything a config file leaves out.
func Default() Config {
	return Config{
		Driver:     "sim",
		Chip:       "gpiochip0",
		Pin:        4,
		Brightness: 1,
		ColorOrder: "GRB",
		Count:      10,
		SettleUs:   2,
		Calibration: Calibration{
			ClockHz:        80_000_000,
			CyclesPerWrite: 7,
			UnitNs:         87.5,
		},
		Realtime: Realtime{Enabled: true, Priority: 80},
		Server:   Server{Addr: ":8080"},
		Redis:    Redis{Addr: "localhost:6379", Prefix: "ws2812"},
		Pattern:  Pattern{Kind: "rgb_channels", FPS: 30, Color: "ffffff"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
// and the os.ErrNotExist error so callers can tell it apart.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	switch c.Driver {
	case "periph", "gpiocdev", "sim":
	default:
		return fmt.Errorf("%w: driver %q", ErrInvalid, c.Driver)
	}
	if c.Count < 0 {
		return fmt.Errorf("%w: count %d", ErrInvalid, c.Count)
	}
	if c.Realtime.Enabled && (c.Realtime.Priority < 1 || c.Realtime.Priority > 99) {
		return fmt.Errorf("%w: realtime priority %d", ErrInvalid, c.Realtime.Priority)
	}
	if l := c.Layout; l != nil && (l.Width <= 0 || l.Height <= 0) {
		return fmt.Errorf("%w: layout %dx%d", ErrInvalid, l.Width, l.Height)
	}
	return nil
}

// Settle is the line settle delay before the first pulse.
func (c Config) Settle() time.Duration {
	return time.Duration(c.SettleUs) * time.Microsecond
}
