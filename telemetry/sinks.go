package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrSinkFull is returned by AsyncSink when its buffer cannot take another event.
var ErrSinkFull = errors.New("telemetry: sink buffer full")

// Sink consumes simulation events.
type Sink interface {
	Emit(ev SimulationEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ev SimulationEvent) error

// Emit calls f(ev).
func (f SinkFunc) Emit(ev SimulationEvent) error { return f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(SimulationEvent) error { return nil })

// Recorder keeps every event in memory, in emission order. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.RWMutex
	events []SimulationEvent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit appends ev.
func (r *Recorder) Emit(ev SimulationEvent) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []SimulationEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SimulationEvent(nil), r.events...)
}

// Since returns events recorded at or after tick.
func (r *Recorder) Since(tick int64) []SimulationEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SimulationEvent
	for _, ev := range r.events {
		if ev.Tick >= tick {
			out = append(out, ev)
		}
	}
	return out
}

// OfType returns events of the given type.
func (r *Recorder) OfType(typ EventType) []SimulationEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []SimulationEvent
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.events)
}

// SlogSink writes events as structured log records.
type SlogSink struct {
	log   *slog.Logger
	level slog.Level
}

// NewSlogSink creates a sink logging at Info. A nil logger uses slog.Default().
func NewSlogSink(l *slog.Logger) *SlogSink {
	if l == nil {
		l = slog.Default()
	}
	return &SlogSink{log: l, level: slog.LevelInfo}
}

// Emit logs ev.
func (s *SlogSink) Emit(ev SimulationEvent) error {
	attrs := []any{
		"type", string(ev.Type),
		"tick", ev.Tick,
	}
	if ev.EntityID != "" {
		attrs = append(attrs, "entity", ev.EntityID, "species", ev.Species)
	}
	if ev.Cause != "" {
		attrs = append(attrs, "cause", ev.Cause)
	}
	if ev.Trait != "" {
		attrs = append(attrs, "trait", ev.Trait, "old", ev.OldValue, "new", ev.NewValue)
	}
	if ev.Message != "" {
		attrs = append(attrs, "message", ev.Message)
	}
	s.log.Log(context.Background(), s.level, "event", attrs...)
	return nil
}

// MultiSink fans events out to several sinks. Every sink sees every event;
// errors are joined.
type MultiSink []Sink

// Emit forwards ev to each sink.
func (m MultiSink) Emit(ev SimulationEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncSink decouples emission from a slow downstream sink with a bounded
// buffer. Emit never blocks; it fails with ErrSinkFull instead and counts
// the event as dropped.
type AsyncSink struct {
	next    Sink
	log     Logger
	ch      chan SimulationEvent
	done    chan struct{}
	once    sync.Once
	dropped atomic.Int64
}

// NewAsyncSink starts a goroutine that drains into next. Downstream errors
// are reported to log.
func NewAsyncSink(next Sink, buffer int, log Logger) *AsyncSink {
	if buffer < 1 {
		buffer = 1
	}
	if log == nil {
		log = NopLogger()
	}
	a := &AsyncSink{
		next: next,
		log:  log,
		ch:   make(chan SimulationEvent, buffer),
		done: make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncSink) run() {
	defer close(a.done)
	for ev := range a.ch {
		Guard(a.log, string(ev.Type), func() error { return a.next.Emit(ev) })
	}
}

// Emit queues ev for delivery.
func (a *AsyncSink) Emit(ev SimulationEvent) error {
	select {
	case a.ch <- ev:
		return nil
	default:
		a.dropped.Add(1)
		return ErrSinkFull
	}
}

// Dropped returns how many events Emit has rejected.
func (a *AsyncSink) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting events and waits until the buffer is drained.
// Emit must not be called after Close.
func (a *AsyncSink) Close() error {
	a.once.Do(func() { close(a.ch) })
	<-a.done
	return nil
}
