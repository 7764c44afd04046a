package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/coreman2200/funtimes-ws2812/internal/config"
	"github.com/coreman2200/funtimes-ws2812/internal/messaging"
	"github.com/coreman2200/funtimes-ws2812/internal/metrics"
	"github.com/coreman2200/funtimes-ws2812/internal/strip"
	"github.com/coreman2200/funtimes-ws2812/internal/ws"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the strip over websocket, HTTP and redis",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", "", "HTTP listen address (default: config server.addr)")
	f.Bool("watch", true, "reload brightness and layout when the config file changes")
}

// observerFunc adapts a function to strip.Observer.
type observerFunc func(gpio, n int, d time.Duration, degraded bool)

func (f observerFunc) ObserveWrite(gpio, n int, d time.Duration, degraded bool) {
	f(gpio, n, d, degraded)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	watch, _ := cmd.Flags().GetBool("watch")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	// The websocket state needs the driver and the driver reports to the
	// state, so the observer is bound once both exist.
	var state *ws.State
	rig, err := buildDriver(cfg, observerFunc(func(gpio, n int, d time.Duration, degraded bool) {
		if state != nil {
			state.ObserveWrite(gpio, n, d, degraded)
		}
	}))
	if err != nil {
		return err
	}
	defer rig.close()

	state = ws.NewState(rig.drv, cfg.Pin, rig.layout, log.With().Str("component", "ws").Logger())
	state.Order = rig.order
	state.FPS = cfg.Pattern.FPS
	state.CurrentDriver = cfg.Driver

	mux := http.NewServeMux()
	mux.HandleFunc("/frames", state.HandleFramesWS)
	mux.HandleFunc("/diag", state.HandleDiagWS)
	mux.HandleFunc("/control", state.HandleControlWS)
	mux.HandleFunc("/health", state.HandleHealth)
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:         addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if watch {
		w := config.NewWatcher(configPath, 250*time.Millisecond, log.With().Str("component", "config").Logger())
		flags := cmd.Flags()
		w.OnReload(func(c config.Config) {
			reloadSettings(rig.drv.State, c, flags)
			log.Info().Float64("brightness", rig.drv.Brightness()).Msg("config reloaded")
		})
		if err := w.Start(); err != nil {
			log.Warn().Err(err).Str("path", configPath).Msg("config watch disabled")
		} else {
			defer w.Stop()
		}
	}

	if cfg.Redis.Enabled {
		rc := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Prefix,
			log.With().Str("component", "redis").Logger(),
			messaging.Callbacks{
				WriteCallback: func(pin int, data []byte) ([]byte, error) {
					echo, err := state.Write(pin, data)
					if err != nil {
						metrics.ControlError("redis")
					}
					return echo, err
				},
				SetBrightnessCallback: func(v float64) float64 {
					v = rig.drv.SetBrightness(v)
					metrics.SetBrightness(v)
					return v
				},
				SetRemapCallback:   rig.drv.SetRemap,
				ClearRemapCallback: rig.drv.ClearRemap,
			})
		if err := rc.Connect(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable; listener disabled")
		} else {
			rc.StartListening()
			defer rc.Close()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Str("driver", cfg.Driver).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug().Err(err).Msg("sd_notify ready")
	} else if ok {
		log.Debug().Msg("notified systemd")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-errCh:
		return err
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	state.StopTest()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// reloadSettings applies a reloaded config on top of the explicitly set
// flags, which keep winning over the file.
func reloadSettings(st *strip.State, c config.Config, flags *pflag.FlagSet) {
	overrideFromFlags(&c, flags)
	applySettings(st, c)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h.ServeHTTP(w, r)
	})
}
