package math

import (
	"fmt"
	"strings"

	"github.com/tanema/gween/ease"
)

// EasingFunc maps a normalized time in [0, 1] to an eased value.
type EasingFunc func(t float32) float32

var easings = map[string]ease.TweenFunc{
	"inquad":     ease.InQuad,
	"outquad":    ease.OutQuad,
	"inoutquad":  ease.InOutQuad,
	"incubic":    ease.InCubic,
	"outcubic":   ease.OutCubic,
	"inoutcubic": ease.InOutCubic,
	"insine":     ease.InSine,
	"outsine":    ease.OutSine,
	"inoutsine":  ease.InOutSine,
	"inexpo":     ease.InExpo,
	"outexpo":    ease.OutExpo,
	"inoutexpo":  ease.InOutExpo,
}

// LinearEasing is the identity curve.
func LinearEasing(t float32) float32 { return t }

// LookupEasing resolves an easing by name. The empty name and "linear" are
// the identity, "smoothstep" is the Hermite curve and anything else must be a
// gween easing such as "inOutCubic" (case insensitive).
func LookupEasing(name string) (EasingFunc, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "", "linear":
		return LinearEasing, nil
	case "smoothstep":
		return Smoothstep, nil
	}
	fn, ok := easings[key]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return func(t float32) float32 {
		return fn(Clamp(t, 0, 1), 0, 1, 1)
	}, nil
}
