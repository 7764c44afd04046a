package ws

import (
	"github.com/coreman2200/funtimes-ws2812/internal/metrics"
	"github.com/coreman2200/funtimes-ws2812/internal/pattern"
	"github.com/coreman2200/funtimes-ws2812/internal/pixel"
)

// Request is one control message. Byte fields travel as base64.
type Request struct {
	Op         string   `json:"op"`
	Pin        *int     `json:"pin,omitempty"`
	Data       []byte   `json:"data,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
	Remap      []byte   `json:"remap,omitempty"`
	Test       string   `json:"test,omitempty"`
	Color      string   `json:"color,omitempty"`
	Rounds     int      `json:"rounds,omitempty"`
}

type Response struct {
	Op         string   `json:"op"`
	OK         bool     `json:"ok"`
	Error      string   `json:"error,omitempty"`
	Echo       []byte   `json:"echo,omitempty"`
	Brightness *float64 `json:"brightness,omitempty"`
	Remap      []byte   `json:"remap,omitempty"`
	Present    *bool    `json:"present,omitempty"`
}

const (
	OpWrite         = "write"
	OpSetBrightness = "set_brightness"
	OpBrightness    = "brightness"
	OpSetRemap      = "set_remap"
	OpClearRemap    = "clear_remap"
	OpRemap         = "remap"
	OpRunTest       = "run_test"
	OpStopTest      = "stop_test"
)

// Apply runs one control request against the strip.
func (s *State) Apply(req Request) Response {
	resp := Response{Op: req.Op, OK: true}
	fail := func(msg string) Response {
		metrics.ControlError("ws")
		s.log.Warn().Str("op", req.Op).Str("error", msg).Msg("control request rejected")
		return Response{Op: req.Op, Error: msg}
	}

	switch req.Op {
	case OpWrite:
		s.mu.RLock()
		pin := s.Pin
		s.mu.RUnlock()
		if req.Pin != nil {
			pin = *req.Pin
		}
		echo, err := s.Write(pin, req.Data)
		if err != nil {
			return fail(err.Error())
		}
		resp.Echo = echo

	case OpSetBrightness:
		if req.Brightness == nil {
			return fail("brightness required")
		}
		v := s.ctrl.SetBrightness(*req.Brightness)
		metrics.SetBrightness(v)
		resp.Brightness = &v

	case OpBrightness:
		v := s.ctrl.Brightness()
		resp.Brightness = &v

	case OpSetRemap:
		// An explicit empty table ("remap": "") is a table; an absent field
		// is a malformed request, use clear_remap to drop the table.
		if req.Remap == nil {
			return fail("remap required")
		}
		s.ctrl.SetRemap(req.Remap)

	case OpClearRemap:
		had := s.ctrl.ClearRemap()
		resp.Present = &had

	case OpRemap:
		table, ok := s.ctrl.Remap()
		resp.Remap = table
		resp.Present = &ok

	case OpRunTest:
		kind, err := pattern.ParseKind(req.Test)
		if err != nil {
			return fail(err.Error())
		}
		plan := pattern.Plan{Kind: kind, Rounds: req.Rounds, Color: pixel.NewColor(0x00ffffff)}
		if req.Color != "" {
			c, err := pixel.ParseColor(req.Color)
			if err != nil {
				return fail(err.Error())
			}
			plan.Color = c
		}
		s.startTest(plan)

	case OpStopTest:
		stopped := s.StopTest()
		resp.Present = &stopped

	default:
		return fail("unknown op " + req.Op)
	}
	return resp
}
