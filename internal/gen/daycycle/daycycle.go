// Package daycycle maps a continuous hour-of-day to lighting, sky and fog
// parameters by interpolating between keyframes. The interpolator is
// stateless and reentrant: it is safe to query from a per-frame loop or
// from several connections at once without locking.
package daycycle

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Color is an RGB triple with components in [0, 1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

func lerpColor(a, b Color, t float64) Color {
	return Color{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
	}
}

// Keyframe pins the environment parameters at one hour of the day.
type Keyframe struct {
	Hour             float64 `json:"hour" yaml:"hour"`
	SkyTop           Color   `json:"sky_top" yaml:"sky_top"`
	SkyBottom        Color   `json:"sky_bottom" yaml:"sky_bottom"`
	AmbientColor     Color   `json:"ambient_color" yaml:"ambient_color"`
	FogColor         Color   `json:"fog_color" yaml:"fog_color"`
	AmbientIntensity float64 `json:"ambient_intensity" yaml:"ambient_intensity"`
	SunIntensity     float64 `json:"sun_intensity" yaml:"sun_intensity"`
	FogDensity       float64 `json:"fog_density" yaml:"fog_density"`
}

// Parameters is the interpolated set handed to the lighting consumer.
type Parameters struct {
	Hour             float64 `json:"hour"`
	Phase            string  `json:"phase"`
	SkyTop           Color   `json:"sky_top"`
	SkyBottom        Color   `json:"sky_bottom"`
	AmbientColor     Color   `json:"ambient_color"`
	FogColor         Color   `json:"fog_color"`
	AmbientIntensity float64 `json:"ambient_intensity"`
	SunIntensity     float64 `json:"sun_intensity"`
	FogDensity       float64 `json:"fog_density"`
}

// Interpolator holds an hour-ordered keyframe set.
type Interpolator struct {
	frames []Keyframe
}

// New validates and sorts the keyframes. At least one frame is required and
// every hour must lie in [0, 24); duplicate hours are rejected.
func New(frames []Keyframe) (*Interpolator, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("daycycle: no keyframes")
	}
	sorted := make([]Keyframe, len(frames))
	copy(sorted, frames)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Hour < sorted[j].Hour })
	for i, f := range sorted {
		if f.Hour < 0 || f.Hour >= 24 {
			return nil, fmt.Errorf("daycycle: keyframe hour %v outside [0, 24)", f.Hour)
		}
		if i > 0 && sorted[i-1].Hour == f.Hour {
			return nil, fmt.Errorf("daycycle: duplicate keyframe hour %v", f.Hour)
		}
	}
	return &Interpolator{frames: sorted}, nil
}

// ParametersAt interpolates all fields at the given hour. Hours outside
// [0, 24) are wrapped. At a keyframe's exact hour the result equals that
// keyframe, and the interpolation is continuous across the 24 -> 0 wrap.
func (in *Interpolator) ParametersAt(hour float64) Parameters {
	hour = math.Mod(hour, 24)
	if hour < 0 {
		hour += 24
	}

	frames := in.frames
	if len(frames) == 1 {
		return frameParams(frames[0], hour)
	}

	// idx is the first frame after the queried hour; its predecessor
	// (wrapping) starts the bracketing interval.
	idx := sort.Search(len(frames), func(i int) bool { return frames[i].Hour > hour })
	next := frames[idx%len(frames)]
	prev := frames[(idx+len(frames)-1)%len(frames)]

	span := next.Hour - prev.Hour
	offset := hour - prev.Hour
	if span <= 0 {
		// Bracket wraps midnight.
		span += 24
		if offset < 0 {
			offset += 24
		}
	}
	t := 0.0
	if span > 0 {
		t = offset / span
	}

	return Parameters{
		Hour:             hour,
		Phase:            PhaseForHour(hour),
		SkyTop:           lerpColor(prev.SkyTop, next.SkyTop, t),
		SkyBottom:        lerpColor(prev.SkyBottom, next.SkyBottom, t),
		AmbientColor:     lerpColor(prev.AmbientColor, next.AmbientColor, t),
		FogColor:         lerpColor(prev.FogColor, next.FogColor, t),
		AmbientIntensity: prev.AmbientIntensity + (next.AmbientIntensity-prev.AmbientIntensity)*t,
		SunIntensity:     prev.SunIntensity + (next.SunIntensity-prev.SunIntensity)*t,
		FogDensity:       prev.FogDensity + (next.FogDensity-prev.FogDensity)*t,
	}
}

func frameParams(f Keyframe, hour float64) Parameters {
	return Parameters{
		Hour:             hour,
		Phase:            PhaseForHour(hour),
		SkyTop:           f.SkyTop,
		SkyBottom:        f.SkyBottom,
		AmbientColor:     f.AmbientColor,
		FogColor:         f.FogColor,
		AmbientIntensity: f.AmbientIntensity,
		SunIntensity:     f.SunIntensity,
		FogDensity:       f.FogDensity,
	}
}

// PhaseForHour buckets an hour into dawn, day, dusk or night.
func PhaseForHour(hour float64) string {
	switch {
	case hour >= 5 && hour < 7:
		return "dawn"
	case hour >= 7 && hour < 18:
		return "day"
	case hour >= 18 && hour < 21:
		return "dusk"
	default:
		return "night"
	}
}

// Clock advances the hour of day in wall time, compressing 24 in-game hours
// into the configured day length.
type Clock struct {
	start       time.Time
	dayLength   time.Duration
	initialFrac float64
}

// NewClock starts a clock at initialHour. Day lengths of zero or below
// default to twenty minutes.
func NewClock(dayLength time.Duration, initialHour float64) *Clock {
	if dayLength <= 0 {
		dayLength = 20 * time.Minute
	}
	frac := math.Mod(initialHour/24, 1)
	if frac < 0 {
		frac += 1
	}
	return &Clock{start: time.Now(), dayLength: dayLength, initialFrac: frac}
}

// HourAt returns the in-game hour of day for the given wall time.
func (c *Clock) HourAt(now time.Time) float64 {
	elapsed := now.Sub(c.start)
	if elapsed < 0 {
		elapsed = 0
	}
	progress := math.Mod(c.initialFrac+float64(elapsed)/float64(c.dayLength), 1)
	return progress * 24
}

// DefaultKeyframes is the meadow's stock day: deep night, a warm dawn, a
// bright noon, an amber dusk and back to night.
func DefaultKeyframes() []Keyframe {
	return []Keyframe{
		{
			Hour:             0,
			SkyTop:           Color{0.02, 0.03, 0.10},
			SkyBottom:        Color{0.05, 0.06, 0.16},
			AmbientColor:     Color{0.20, 0.24, 0.42},
			FogColor:         Color{0.04, 0.05, 0.12},
			AmbientIntensity: 0.18,
			SunIntensity:     0.0,
			FogDensity:       0.020,
		},
		{
			Hour:             5,
			SkyTop:           Color{0.22, 0.18, 0.36},
			SkyBottom:        Color{0.88, 0.56, 0.40},
			AmbientColor:     Color{0.60, 0.50, 0.52},
			FogColor:         Color{0.70, 0.55, 0.48},
			AmbientIntensity: 0.45,
			SunIntensity:     0.35,
			FogDensity:       0.016,
		},
		{
			Hour:             12,
			SkyTop:           Color{0.30, 0.55, 0.92},
			SkyBottom:        Color{0.75, 0.88, 0.98},
			AmbientColor:     Color{0.95, 0.96, 0.92},
			FogColor:         Color{0.82, 0.88, 0.95},
			AmbientIntensity: 0.95,
			SunIntensity:     1.0,
			FogDensity:       0.006,
		},
		{
			Hour:             18,
			SkyTop:           Color{0.34, 0.26, 0.46},
			SkyBottom:        Color{0.96, 0.58, 0.32},
			AmbientColor:     Color{0.78, 0.62, 0.50},
			FogColor:         Color{0.80, 0.58, 0.42},
			AmbientIntensity: 0.55,
			SunIntensity:     0.40,
			FogDensity:       0.012,
		},
		{
			Hour:             21,
			SkyTop:           Color{0.03, 0.04, 0.12},
			SkyBottom:        Color{0.08, 0.08, 0.20},
			AmbientColor:     Color{0.24, 0.28, 0.46},
			FogColor:         Color{0.05, 0.06, 0.14},
			AmbientIntensity: 0.22,
			SunIntensity:     0.0,
			FogDensity:       0.018,
		},
	}
}
