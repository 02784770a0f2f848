package telemetry

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/traits"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return epoch }

func TestEmitter_AllOperations(t *testing.T) {
	rec := NewRecorder()
	em := NewEmitter(rec, fixedClock)

	parent := entity("mother", traits.Fungus{}, 70, true)
	child := entity("child", traits.Fungus{}, 30, true)
	child.Lineage = parent.ID
	env := components.Environment{Tick: 9, Temperature: 30}

	require.NoError(t, em.LogBirth(1, child))
	require.NoError(t, em.LogDeath(1, parent, CauseOldAge))
	require.NoError(t, em.LogReproduction(1, parent, child))
	require.NoError(t, em.LogMutation(1, child, traits.Change{Trait: "decompositionRate", Old: 1, New: 1.08, RelativeDelta: 0.08}))
	require.NoError(t, em.LogExtinction(2, traits.SpeciesCarnivore))
	require.NoError(t, em.LogPopulationExplosion(2, traits.SpeciesPlant, 20, 80))
	require.NoError(t, em.LogEcosystemCollapse(2, 4, []traits.Species{traits.SpeciesHerbivore}))
	require.NoError(t, em.LogDisaster(3, "wildfire", 0.7, 12))
	require.NoError(t, em.LogUserIntervention(3, "spawn", map[string]any{"count": 2}))
	require.NoError(t, em.LogEnvironmentChange(9, components.WeatherClear, components.WeatherRain, env))
	require.NoError(t, em.LogCustom(9, "note", map[string]any{"k": "v"}))
	require.NoError(t, em.LogAmbientNarrative(9, "Rain patters."))

	evs := rec.Events()
	want := []EventType{
		EventBirth, EventDeath, EventReproduction, EventMutation,
		EventExtinction, EventPopulationExplosion, EventEcosystemCollapse,
		EventDisaster, EventUserIntervention, EventEnvironmentChange,
		EventCustom, EventAmbientNarrative,
	}
	require.Len(t, evs, len(want))
	for i, typ := range want {
		assert.Equal(t, typ, evs[i].Type, "event %d", i)
		assert.Equal(t, epoch, evs[i].Timestamp)
	}

	assert.Equal(t, "mother", evs[0].ParentID)
	assert.Equal(t, "fungus", evs[0].Species)
	assert.Equal(t, string(CauseOldAge), evs[1].Cause)
	assert.Equal(t, "child", evs[2].Data["offspringId"])
	assert.Equal(t, "decompositionRate", evs[3].Trait)
	assert.Equal(t, 1.08, evs[3].NewValue)
	assert.Equal(t, "carnivore", evs[4].Species)
	assert.Equal(t, 0.7, evs[7].Severity)
	assert.Equal(t, "CLEAR -> RAIN", evs[9].Message)
	assert.Equal(t, "Rain patters.", evs[11].Message)

	assert.Len(t, rec.Since(3), 5)
	assert.Len(t, rec.OfType(EventDeath), 1)
	assert.Equal(t, len(want), rec.Len())
}

type capture struct {
	mu    sync.Mutex
	lines []string
}

func (c *capture) Debug(msg string, args ...any) { c.add("debug", msg) }
func (c *capture) Info(msg string, args ...any)  { c.add("info", msg) }
func (c *capture) Warn(msg string, args ...any)  { c.add("warn", msg) }
func (c *capture) Error(msg string, args ...any) { c.add("error", msg) }
func (c *capture) Fatal(msg string, args ...any) { c.add("fatal", msg) }

func (c *capture) add(level, msg string) {
	c.mu.Lock()
	c.lines = append(c.lines, level+":"+msg)
	c.mu.Unlock()
}

func TestGuard_ReportsErrorsAndPanics(t *testing.T) {
	log := &capture{}

	Guard(log, "BIRTH", func() error { return errors.New("boom") })
	Guard(log, "DEATH", func() error { panic("kaboom") })
	Guard(log, "MUTATION", func() error { return nil })

	assert.Equal(t, []string{"error:logger failed", "error:logger panicked"}, log.lines)
}

func TestGuarded_NeverPropagates(t *testing.T) {
	log := &capture{}
	failing := NewEmitter(SinkFunc(func(SimulationEvent) error { return errors.New("db down") }), fixedClock)
	panicking := NewEmitter(SinkFunc(func(SimulationEvent) error { panic("nil map") }), fixedClock)

	e := entity("h", traits.Herbivore{}, 10, true)

	assert.NoError(t, NewGuarded(failing, log).LogBirth(1, e))
	assert.NoError(t, NewGuarded(panicking, log).LogDeath(1, e, CauseStarvation))
	assert.Len(t, log.lines, 2)
}

func TestMultiSink_DeliversToAllAndJoinsErrors(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	bad := SinkFunc(func(SimulationEvent) error { return ErrSinkFull })

	err := MultiSink{a, bad, b}.Emit(SimulationEvent{Type: EventCustom})

	assert.ErrorIs(t, err, ErrSinkFull)
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestAsyncSink_DrainsOnClose(t *testing.T) {
	rec := NewRecorder()
	a := NewAsyncSink(rec, 64, NopLogger())

	for i := 0; i < 50; i++ {
		require.NoError(t, a.Emit(SimulationEvent{Type: EventCustom, Tick: int64(i)}))
	}
	require.NoError(t, a.Close())
	assert.Zero(t, a.Dropped())

	evs := rec.Events()
	require.Len(t, evs, 50)
	for i, ev := range evs {
		assert.Equal(t, int64(i), ev.Tick, "order preserved")
	}
}

func TestAsyncSink_FullBufferFailsFast(t *testing.T) {
	release := make(chan struct{})
	blocked := SinkFunc(func(SimulationEvent) error {
		<-release
		return nil
	})
	a := NewAsyncSink(blocked, 1, NopLogger())

	// The drain goroutine holds at most one event, the buffer one more.
	var full bool
	for i := 0; i < 10; i++ {
		if errors.Is(a.Emit(SimulationEvent{Type: EventCustom}), ErrSinkFull) {
			full = true
			break
		}
	}
	assert.True(t, full)
	assert.Equal(t, int64(1), a.Dropped())

	close(release)
	require.NoError(t, a.Close())
}

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSlogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sink.Emit(SimulationEvent{Type: EventDeath, Tick: 4, EntityID: "x", Species: "plant", Cause: "consumed"}))

	out := buf.String()
	assert.True(t, strings.Contains(out, `"type":"DEATH"`), out)
	assert.Contains(t, out, `"cause":"consumed"`)
}

func TestAppLogger_FatalDoesNotExit(t *testing.T) {
	var buf bytes.Buffer
	log := NewAppLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	log.Debug("d")
	log.Fatal("unrecoverable", "k", 1)

	assert.Contains(t, buf.String(), `"msg":"unrecoverable"`)
	assert.Contains(t, buf.String(), `"level":"ERROR+4"`)
}
