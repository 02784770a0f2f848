package components

// WeatherKind is one of the closed set of weather states.
type WeatherKind string

const (
	WeatherClear    WeatherKind = "CLEAR"
	WeatherOvercast WeatherKind = "OVERCAST"
	WeatherRain     WeatherKind = "RAIN"
	WeatherStorm    WeatherKind = "STORM"
	WeatherFog      WeatherKind = "FOG"
	WeatherDrought  WeatherKind = "DROUGHT"
)

// WeatherKinds lists every weather state in canonical order.
var WeatherKinds = [...]WeatherKind{WeatherClear, WeatherOvercast, WeatherRain, WeatherStorm, WeatherFog, WeatherDrought}

// Valid reports whether k is a known weather state.
func (k WeatherKind) Valid() bool {
	for _, w := range WeatherKinds {
		if w == k {
			return true
		}
	}
	return false
}

// WeatherState is the discrete part of the environment.
// Invariant: 0 <= TransitionProgressTicks <= PlannedDurationTicks.
type WeatherState struct {
	Current                 WeatherKind `json:"currentState"`
	EnteredAtTick           int64       `json:"stateEnteredAtTick"`
	PlannedDurationTicks    int64       `json:"plannedDurationTicks"`
	Previous                WeatherKind `json:"previousState,omitempty"`
	TransitionProgressTicks int64       `json:"transitionProgressTicks"`
}

// Environment holds the ambient scalars shared by every entity in a tick.
type Environment struct {
	Temperature float64      `json:"temperature"` // °C
	Sunlight    float64      `json:"sunlight"`    // [0, 1]
	Moisture    float64      `json:"moisture"`    // [0, 1]
	Tick        int64        `json:"tick"`
	Weather     WeatherState `json:"weatherState"`
}
