package diagnostics

import (
	"errors"

	"github.com/coreman2200/funtimes-ws2812/internal/pin"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// FromWriteError explains a failed write to an operator.
func FromWriteError(id int, err error) Diagnostic {
	d := Diagnostic{
		Severity: Err,
		Code:     "WRITE.FAILED",
		Summary:  "Strip write failed",
		Detail:   err.Error(),
		Evidence: map[string]any{"pin": id},
	}
	switch {
	case errors.Is(err, pin.ErrInvalidPin):
		d.Code = "WRITE.INVALID_PIN"
		d.Summary = "Pin identifier not in the pin table"
		d.SuggestedFixes = []string{"use an identifier listed by `ws2812 pins`", "override `pins` in config.yaml"}
	case errors.Is(err, pin.ErrUnsupported):
		d.Code = "WRITE.UNSUPPORTED"
		d.Summary = "GPIO backend not available on this host"
		d.SuggestedFixes = []string{"select driver periph or sim"}
	default:
		d.LikelyCauses = []string{"GPIO line busy or missing permissions", "host drivers not loaded"}
	}
	return d
}

// Degraded reports a write that went out without realtime scheduling.
func Degraded(gpio int) Diagnostic {
	return Diagnostic{
		Severity:       Warn,
		Code:           "WRITE.DEGRADED",
		Summary:        "Transmitted without realtime priority",
		LikelyCauses:   []string{"missing CAP_SYS_NICE", "RLIMIT_RTPRIO is 0"},
		SuggestedFixes: []string{"run as root or grant CAP_SYS_NICE", "disable realtime in config to silence this"},
		Evidence:       map[string]any{"gpio": gpio},
	}
}
