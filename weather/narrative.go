package weather

import (
	"fmt"

	"github.com/pthm-cable/garden/components"
)

var arrivals = map[components.WeatherKind]string{
	components.WeatherClear:    "The sky opens and the garden warms under a clear sun.",
	components.WeatherOvercast: "A grey lid of cloud slides over the garden.",
	components.WeatherRain:     "Rain patters across the leaves and the soil drinks deep.",
	components.WeatherStorm:    "Thunder rolls in; wind tears at the canopy.",
	components.WeatherFog:      "Fog settles low, and the garden goes quiet.",
	components.WeatherDrought:  "The air turns dry and hot. Puddles shrink to cracked mud.",
}

// Narrative returns a short ambient line describing the move from one weather state to another.
func Narrative(from, to components.WeatherKind) string {
	line, ok := arrivals[to]
	if !ok {
		line = fmt.Sprintf("The weather turns %s.", to)
	}
	if from == components.WeatherStorm && to != components.WeatherStorm {
		return "The storm passes. " + line
	}
	if from == components.WeatherDrought && to != components.WeatherDrought {
		return "The drought breaks. " + line
	}
	return line
}
