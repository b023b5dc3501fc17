package daycycle

import (
	"math"
	"testing"
	"time"
)

func TestNew_RejectsBadFrames(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("empty keyframe set accepted")
	}
	if _, err := New([]Keyframe{{Hour: 24}}); err == nil {
		t.Fatal("hour 24 accepted")
	}
	if _, err := New([]Keyframe{{Hour: -1}}); err == nil {
		t.Fatal("negative hour accepted")
	}
	if _, err := New([]Keyframe{{Hour: 6}, {Hour: 6}}); err == nil {
		t.Fatal("duplicate hours accepted")
	}
}

func TestParametersAt_ExactAtKeyframes(t *testing.T) {
	frames := DefaultKeyframes()
	in, err := New(frames)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, f := range frames {
		got := in.ParametersAt(f.Hour)
		if got.SkyTop != f.SkyTop || got.SkyBottom != f.SkyBottom ||
			got.AmbientColor != f.AmbientColor || got.FogColor != f.FogColor {
			t.Fatalf("hour %v: colors drifted from keyframe: %+v", f.Hour, got)
		}
		if got.AmbientIntensity != f.AmbientIntensity || got.SunIntensity != f.SunIntensity || got.FogDensity != f.FogDensity {
			t.Fatalf("hour %v: intensities drifted from keyframe: %+v", f.Hour, got)
		}
	}
}

func TestParametersAt_ContinuousAcrossMidnight(t *testing.T) {
	in, err := New(DefaultKeyframes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	const eps = 1e-6
	before := in.ParametersAt(24 - eps)
	after := in.ParametersAt(0)
	if math.Abs(before.AmbientIntensity-after.AmbientIntensity) > 1e-4 {
		t.Fatalf("ambient intensity jumps at midnight: %v vs %v", before.AmbientIntensity, after.AmbientIntensity)
	}
	if math.Abs(before.SkyTop.R-after.SkyTop.R) > 1e-4 {
		t.Fatalf("sky color jumps at midnight: %v vs %v", before.SkyTop, after.SkyTop)
	}
}

func TestParametersAt_ContinuousEverywhere(t *testing.T) {
	in, err := New(DefaultKeyframes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	const step = 1e-5
	for h := 0.0; h < 24; h += 0.25 {
		a := in.ParametersAt(h)
		b := in.ParametersAt(h + step)
		if math.Abs(a.SunIntensity-b.SunIntensity) > 1e-3 {
			t.Fatalf("sun intensity discontinuity near hour %v", h)
		}
	}
}

func TestParametersAt_MidpointInterpolates(t *testing.T) {
	frames := []Keyframe{
		{Hour: 6, AmbientIntensity: 0.2, SunIntensity: 0.0},
		{Hour: 18, AmbientIntensity: 0.8, SunIntensity: 1.0},
	}
	in, err := New(frames)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := in.ParametersAt(12)
	if math.Abs(got.AmbientIntensity-0.5) > 1e-12 {
		t.Fatalf("midpoint ambient = %v, want 0.5", got.AmbientIntensity)
	}
	if math.Abs(got.SunIntensity-0.5) > 1e-12 {
		t.Fatalf("midpoint sun = %v, want 0.5", got.SunIntensity)
	}
	// Hour 0 sits exactly halfway through the 18 -> 6 wrap interval.
	wrapped := in.ParametersAt(0)
	if math.Abs(wrapped.SunIntensity-0.5) > 1e-12 {
		t.Fatalf("wrap midpoint sun = %v, want 0.5", wrapped.SunIntensity)
	}
}

func TestParametersAt_WrapsInputHours(t *testing.T) {
	in, err := New(DefaultKeyframes())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a, b := in.ParametersAt(25), in.ParametersAt(1); a != b {
		t.Fatalf("hour 25 != hour 1: %+v vs %+v", a, b)
	}
	if a, b := in.ParametersAt(-1), in.ParametersAt(23); a != b {
		t.Fatalf("hour -1 != hour 23: %+v vs %+v", a, b)
	}
}

func TestPhaseForHour(t *testing.T) {
	cases := map[float64]string{
		0: "night", 5: "dawn", 6.5: "dawn", 7: "day",
		12: "day", 18: "dusk", 20.9: "dusk", 21: "night",
	}
	for hour, want := range cases {
		if got := PhaseForHour(hour); got != want {
			t.Fatalf("PhaseForHour(%v) = %s, want %s", hour, got, want)
		}
	}
}

func TestClock_AdvancesAndWraps(t *testing.T) {
	c := NewClock(24*time.Hour, 6)
	now := c.start
	if h := c.HourAt(now); math.Abs(h-6) > 1e-9 {
		t.Fatalf("initial hour %v, want 6", h)
	}
	if h := c.HourAt(now.Add(12 * time.Hour)); math.Abs(h-18) > 1e-9 {
		t.Fatalf("after half a day hour %v, want 18", h)
	}
	if h := c.HourAt(now.Add(30 * time.Hour)); math.Abs(h-12) > 1e-9 {
		t.Fatalf("after wrap hour %v, want 12", h)
	}
	if h := c.HourAt(now.Add(-time.Hour)); math.Abs(h-6) > 1e-9 {
		t.Fatalf("time before start should clamp to initial hour, got %v", h)
	}
}
