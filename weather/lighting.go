package weather

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/garden/components"
)

// DayLengthTicks is the length of the diurnal cycle used for lighting.
const DayLengthTicks = 96

// LightingContext holds render-facing light values, all in [0, 1] except SunAngle.
type LightingContext struct {
	SunAngle       float64 `json:"sunAngle"` // degrees, 0 = midnight, 180 = noon
	Daylight       float64 `json:"daylight"`
	Ambient        float64 `json:"ambient"`
	FogDensity     float64 `json:"fogDensity"`
	ShadowStrength float64 `json:"shadowStrength"`
	BloomFactor    float64 `json:"bloomFactor"`
}

// DayPhase returns the position of tick within a day of dayLength ticks, in [0, 1).
func DayPhase(tick, dayLength int64) float64 {
	if dayLength <= 0 {
		dayLength = DayLengthTicks
	}
	t := tick % dayLength
	if t < 0 {
		t += dayLength
	}
	return float64(t) / float64(dayLength)
}

// Daylight is 0 from dusk to dawn and peaks at 1 at noon.
func Daylight(tick, dayLength int64) float64 {
	return math.Max(0, -math.Cos(2*math.Pi*DayPhase(tick, dayLength)))
}

// CreateLightingContext derives lighting from sunlight, the tick of day and the
// weather state. It is a pure function.
func CreateLightingContext(sunlight float64, tick int64, kind components.WeatherKind) LightingContext {
	sun := clamp(sunlight, 0, 1)
	phase := DayPhase(tick, DayLengthTicks)
	day := Daylight(tick, DayLengthTicks)

	lc := LightingContext{
		SunAngle:       phase * 360,
		Daylight:       day,
		Ambient:        0.15 + 0.85*sun*day,
		FogDensity:     0.1 + 0.2*(1-sun),
		ShadowStrength: 0.3 + 0.5*day*sun,
		BloomFactor:    0.2 + 0.6*day*sun,
	}

	switch kind {
	case components.WeatherStorm:
		lc.FogDensity += 0.25
		lc.ShadowStrength += 0.35
		lc.BloomFactor *= 0.3
	case components.WeatherFog:
		lc.FogDensity += 0.45
		lc.BloomFactor *= 0.4
	case components.WeatherDrought:
		lc.BloomFactor += 0.15
		lc.ShadowStrength -= 0.1
	case components.WeatherRain:
		lc.FogDensity += 0.15
		lc.BloomFactor *= 0.6
	case components.WeatherOvercast:
		lc.ShadowStrength -= 0.2
		lc.BloomFactor *= 0.7
	}

	lc.Ambient = clamp(lc.Ambient, 0, 1)
	lc.FogDensity = clamp(lc.FogDensity, 0, 1)
	lc.ShadowStrength = clamp(lc.ShadowStrength, 0, 1)
	lc.BloomFactor = clamp(lc.BloomFactor, 0, 1)
	return lc
}

// LogValue implements slog.LogValuer for structured logging.
func (lc LightingContext) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("sun_angle", lc.SunAngle),
		slog.Float64("daylight", lc.Daylight),
		slog.Float64("ambient", lc.Ambient),
		slog.Float64("fog", lc.FogDensity),
		slog.Float64("shadow", lc.ShadowStrength),
		slog.Float64("bloom", lc.BloomFactor),
	)
}
