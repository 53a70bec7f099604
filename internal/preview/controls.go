// Package preview shows a meme in a window and lets the transform be
// adjusted from the keyboard, standing in for the web form's sliders.
package preview

import (
	"math"

	"github.com/opd-ai/go-meme/internal/config"
)

// Action is a keyboard command.
type Action int

const (
	// ActionNone is an unbound key; it changes nothing.
	ActionNone Action = iota
	// ActionRotateLeft turns the image counter-clockwise by RotateStep.
	ActionRotateLeft
	// ActionRotateRight turns the image clockwise by RotateStep.
	ActionRotateRight
	// ActionScaleUp grows the scale by config.ScaleStep.
	ActionScaleUp
	// ActionScaleDown shrinks the scale by config.ScaleStep.
	ActionScaleDown
	// ActionMirror toggles mirroring.
	ActionMirror
	// ActionReset restores rotation, scale and mirroring.
	ActionReset
	// ActionSave exports the current meme.
	ActionSave
)

// RotateStep is the rotation change per key press, in degrees.
const RotateStep = 5.0

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionRotateLeft:
		return "rotate-left"
	case ActionRotateRight:
		return "rotate-right"
	case ActionScaleUp:
		return "scale-up"
	case ActionScaleDown:
		return "scale-down"
	case ActionMirror:
		return "mirror"
	case ActionReset:
		return "reset"
	case ActionSave:
		return "save"
	default:
		return "none"
	}
}

// Apply changes cfg for a transform action and reports whether anything
// changed. Rotation and scale stay within the slider ranges. ActionSave
// and ActionNone leave cfg alone.
func Apply(cfg *config.Config, a Action) bool {
	t := &cfg.Transform
	before := *t
	switch a {
	case ActionRotateLeft:
		t.Rotate = clamp(t.Rotate-RotateStep, config.MinRotate, config.MaxRotate)
	case ActionRotateRight:
		t.Rotate = clamp(t.Rotate+RotateStep, config.MinRotate, config.MaxRotate)
	case ActionScaleUp:
		t.Scale = clamp(roundStep(t.Scale+config.ScaleStep), config.MinScale, config.MaxScale)
	case ActionScaleDown:
		t.Scale = clamp(roundStep(t.Scale-config.ScaleStep), config.MinScale, config.MaxScale)
	case ActionMirror:
		t.Mirror = !t.Mirror
	case ActionReset:
		t.Rotate = 0
		t.Scale = config.DefaultScale
		t.Mirror = false
	default:
		return false
	}
	return *t != before
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// roundStep snaps v to the slider grid so repeated steps do not drift.
func roundStep(v float64) float64 {
	return math.Round(v/config.ScaleStep) / math.Round(1/config.ScaleStep)
}
