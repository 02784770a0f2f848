package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/traits"
)

// LevelFatal is above slog.LevelError. Logging at it never exits the process.
const LevelFatal = slog.Level(12)

// Logger is the application logger used for operational diagnostics.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
}

// AppLogger adapts *slog.Logger to Logger.
type AppLogger struct {
	*slog.Logger
}

// NewAppLogger wraps l. A nil logger uses slog.Default().
func NewAppLogger(l *slog.Logger) *AppLogger {
	if l == nil {
		l = slog.Default()
	}
	return &AppLogger{Logger: l}
}

// Fatal logs at LevelFatal.
func (a *AppLogger) Fatal(msg string, args ...any) {
	a.Log(context.Background(), LevelFatal, msg, args...)
}

// NopLogger discards everything.
func NopLogger() Logger {
	return NewAppLogger(slog.New(slog.DiscardHandler))
}

// Guard runs fn, reporting a returned error or a recovered panic to log.
// It never propagates either.
func Guard(log Logger, what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("logger panicked", "event", what, "panic", fmt.Sprint(r))
		}
	}()
	if err := fn(); err != nil {
		log.Error("logger failed", "event", what, "err", err)
	}
}

// Guarded wraps an EventLogger so that every call is fire-and-forget: failures
// and panics are reported to the application logger and nil is returned.
type Guarded struct {
	next EventLogger
	log  Logger
}

var (
	_ EventLogger = (*Emitter)(nil)
	_ EventLogger = (*Guarded)(nil)
)

// NewGuarded wraps next. A nil next discards events.
func NewGuarded(next EventLogger, log Logger) *Guarded {
	if log == nil {
		log = NopLogger()
	}
	if next == nil {
		next = NewEmitter(Discard, nil)
	}
	return &Guarded{next: next, log: log}
}

func (g *Guarded) run(typ EventType, fn func() error) error {
	Guard(g.log, string(typ), fn)
	return nil
}

func (g *Guarded) LogBirth(tick int64, child *components.Entity) error {
	return g.run(EventBirth, func() error { return g.next.LogBirth(tick, child) })
}

func (g *Guarded) LogDeath(tick int64, e *components.Entity, cause DeathCause) error {
	return g.run(EventDeath, func() error { return g.next.LogDeath(tick, e, cause) })
}

func (g *Guarded) LogReproduction(tick int64, parent, offspring *components.Entity) error {
	return g.run(EventReproduction, func() error { return g.next.LogReproduction(tick, parent, offspring) })
}

func (g *Guarded) LogMutation(tick int64, e *components.Entity, c traits.Change) error {
	return g.run(EventMutation, func() error { return g.next.LogMutation(tick, e, c) })
}

func (g *Guarded) LogExtinction(tick int64, sp traits.Species) error {
	return g.run(EventExtinction, func() error { return g.next.LogExtinction(tick, sp) })
}

func (g *Guarded) LogPopulationExplosion(tick int64, sp traits.Species, from, to int) error {
	return g.run(EventPopulationExplosion, func() error { return g.next.LogPopulationExplosion(tick, sp, from, to) })
}

func (g *Guarded) LogEcosystemCollapse(tick int64, living int, extinct []traits.Species) error {
	return g.run(EventEcosystemCollapse, func() error { return g.next.LogEcosystemCollapse(tick, living, extinct) })
}

func (g *Guarded) LogDisaster(tick int64, kind string, severity float64, affected int) error {
	return g.run(EventDisaster, func() error { return g.next.LogDisaster(tick, kind, severity, affected) })
}

func (g *Guarded) LogUserIntervention(tick int64, action string, details map[string]any) error {
	return g.run(EventUserIntervention, func() error { return g.next.LogUserIntervention(tick, action, details) })
}

func (g *Guarded) LogEnvironmentChange(tick int64, from, to components.WeatherKind, env components.Environment) error {
	return g.run(EventEnvironmentChange, func() error { return g.next.LogEnvironmentChange(tick, from, to, env) })
}

func (g *Guarded) LogCustom(tick int64, name string, data map[string]any) error {
	return g.run(EventCustom, func() error { return g.next.LogCustom(tick, name, data) })
}

func (g *Guarded) LogAmbientNarrative(tick int64, text string) error {
	return g.run(EventAmbientNarrative, func() error { return g.next.LogAmbientNarrative(tick, text) })
}
