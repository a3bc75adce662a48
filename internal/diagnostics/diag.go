package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreman2200/zonefx/internal/engine"
	"github.com/coreman2200/zonefx/internal/led"
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
	Time           time.Time      `json:"time"`
}

// FromSinkError describes a failed sink write for the diagnostics feed.
func FromSinkError(e *engine.SinkError) Diagnostic {
	d := Diagnostic{
		Severity: Warn,
		Code:     "SINK.WRITE",
		Summary:  fmt.Sprintf("Output %s failed", e.Sink),
		Detail:   e.Err.Error(),
		Evidence: map[string]any{"sink": e.Sink, "frame": e.Frame},
		Time:     time.Now(),
	}
	switch {
	case errors.Is(e.Err, context.DeadlineExceeded):
		d.Code = "SINK.TIMEOUT"
		d.Summary = fmt.Sprintf("Output %s timed out", e.Sink)
		d.LikelyCauses = []string{"device stalled or disconnected", "bus clock too slow for the pixel count"}
		d.SuggestedFixes = []string{"check the cable and power", "lower fps or leds_per_zone"}
	case errors.Is(e.Err, led.ErrBusy):
		d.Code = "SINK.BUSY"
		d.Severity = Info
		d.Summary = fmt.Sprintf("Output %s dropped a frame", e.Sink)
		d.LikelyCauses = []string{"previous write still in flight"}
	default:
		d.LikelyCauses = []string{"device error"}
		d.SuggestedFixes = []string{"check the logs for the underlying error"}
	}
	return d
}

// Selected reports an effect switch.
func Selected(name string) Diagnostic {
	return Diagnostic{Severity: Info, Code: "EFFECT.SELECT", Summary: "Effect selected", Detail: name, Time: time.Now()}
}

// Rejected reports a refused control request.
func Rejected(code string, err error) Diagnostic {
	return Diagnostic{Severity: Warn, Code: code, Summary: "Request rejected", Detail: err.Error(), Time: time.Now()}
}
