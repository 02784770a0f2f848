package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/garden/config"
)

func TestOutputManager_DisabledWhenDirEmpty(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// A nil manager is usable and inert.
	assert.NoError(t, om.WriteTick(TickStats{}))
	assert.NoError(t, om.Emit(SimulationEvent{}))
	assert.NoError(t, om.Close())
	assert.Equal(t, "", om.Dir())
}

func TestOutputManager_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NoError(t, om.WriteConfig(cfg))

	require.NoError(t, om.WriteTick(TickStats{Tick: 1, Plants: 10}))
	require.NoError(t, om.WriteTick(TickStats{Tick: 2, Plants: 11}))

	em := NewEmitter(om, fixedClock)
	require.NoError(t, em.LogAmbientNarrative(1, "quiet"))
	require.NoError(t, em.LogCustom(2, "note", map[string]any{"a": 1}))

	require.NoError(t, om.Close())

	ticks, err := os.ReadFile(filepath.Join(dir, "ticks.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(ticks)), "\n")
	require.Len(t, lines, 3, "one header, two rows")
	assert.True(t, strings.HasPrefix(lines[0], "tick,weather,"))

	events, err := os.ReadFile(filepath.Join(dir, "events.csv"))
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(string(events)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "AMBIENT_NARRATIVE")
	assert.Contains(t, lines[2], "CUSTOM")

	_, err = os.Stat(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err)
}

func TestNewEventRecord(t *testing.T) {
	rec := NewEventRecord(SimulationEvent{
		Type:      EventDisaster,
		Tick:      7,
		Timestamp: epoch,
		Severity:  0.5,
		Data:      map[string]any{"affected": 3},
	})

	assert.Equal(t, "DISASTER", rec.Type)
	assert.Equal(t, "2024-01-01T00:00:00Z", rec.Timestamp)
	assert.Equal(t, `{"affected":3}`, rec.Data)
}
