package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/traits"
)

func testMonitorConfig() config.MonitorConfig {
	return config.MonitorConfig{
		ExplosionFactor:        2,
		ExplosionMin:           50,
		WindowTicks:            10,
		CollapseTotal:          10,
		CollapseExtinctSpecies: 2,
	}
}

func alertsOfType(alerts []Alert, typ EventType) []Alert {
	var out []Alert
	for _, a := range alerts {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func TestPopulationMonitor_Explosion(t *testing.T) {
	pm := NewPopulationMonitor(testMonitorConfig())

	for i := int64(0); i < 5; i++ {
		alerts := pm.Check(i, Counts{40, 20, 4, 6})
		assert.Empty(t, alerts)
	}

	alerts := pm.Check(5, Counts{40, 45, 4, 6})
	assert.Empty(t, alertsOfType(alerts, EventPopulationExplosion), "below the minimum size")

	alerts = pm.Check(6, Counts{40, 60, 4, 6})
	got := alertsOfType(alerts, EventPopulationExplosion)
	require.Len(t, got, 1)
	assert.Equal(t, traits.SpeciesHerbivore, got[0].Species)
	assert.Equal(t, 20, got[0].From)
	assert.Equal(t, 60, got[0].To)

	// Cooldown: no repeat within one window.
	alerts = pm.Check(7, Counts{40, 80, 4, 6})
	assert.Empty(t, alertsOfType(alerts, EventPopulationExplosion))
}

func TestPopulationMonitor_NoAlertWithoutHistory(t *testing.T) {
	pm := NewPopulationMonitor(testMonitorConfig())
	alerts := pm.Check(0, Counts{500, 20, 4, 6})
	assert.Empty(t, alerts)
}

func TestPopulationMonitor_CollapseLatches(t *testing.T) {
	pm := NewPopulationMonitor(testMonitorConfig())

	pm.Check(0, Counts{40, 20, 4, 6})

	alerts := pm.Check(1, Counts{30, 0, 0, 6})
	got := alertsOfType(alerts, EventEcosystemCollapse)
	require.Len(t, got, 1)
	assert.Equal(t, 36, got[0].Living)
	assert.Equal(t, []traits.Species{traits.SpeciesHerbivore, traits.SpeciesCarnivore}, got[0].Extinct)

	// Still collapsed: latched.
	alerts = pm.Check(2, Counts{30, 0, 0, 5})
	assert.Empty(t, alertsOfType(alerts, EventEcosystemCollapse))

	// Recovery clears the latch, a later collapse fires again.
	pm.Check(3, Counts{30, 5, 2, 5})
	alerts = pm.Check(4, Counts{3, 2, 1, 1})
	assert.Len(t, alertsOfType(alerts, EventEcosystemCollapse), 1)
}

func TestAlert_Dispatch(t *testing.T) {
	rec := NewRecorder()
	em := NewEmitter(rec, nil)

	require.NoError(t, Alert{Type: EventPopulationExplosion, Tick: 4, Species: traits.SpeciesPlant, From: 30, To: 90}.Dispatch(em))
	require.NoError(t, Alert{Type: EventEcosystemCollapse, Tick: 5, Living: 3, Extinct: []traits.Species{traits.SpeciesFungus}}.Dispatch(em))

	evs := rec.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, EventPopulationExplosion, evs[0].Type)
	assert.Equal(t, "plant", evs[0].Species)
	assert.Equal(t, 90.0, evs[0].NewValue)
	assert.Equal(t, EventEcosystemCollapse, evs[1].Type)
	assert.Equal(t, 3.0, evs[1].NewValue)
}

func TestCounts(t *testing.T) {
	c := Counts{3, 0, 2, 0}
	assert.Equal(t, 5, c.Total())
	assert.Equal(t, []traits.Species{traits.SpeciesHerbivore, traits.SpeciesFungus}, c.Extinct())
}
