package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/garden/config"
)

// EventRecord is the flat CSV shape of a SimulationEvent.
type EventRecord struct {
	Tick       int64   `csv:"tick"`
	Timestamp  string  `csv:"timestamp"`
	Type       string  `csv:"event_type"`
	EntityID   string  `csv:"entity_id"`
	EntityName string  `csv:"entity_name"`
	Species    string  `csv:"species"`
	ParentID   string  `csv:"parent_id"`
	Trait      string  `csv:"trait"`
	OldValue   float64 `csv:"old_value"`
	NewValue   float64 `csv:"new_value"`
	Cause      string  `csv:"cause"`
	Severity   float64 `csv:"severity"`
	Message    string  `csv:"message"`
	Data       string  `csv:"data"` // JSON object
}

// NewEventRecord flattens ev.
func NewEventRecord(ev SimulationEvent) EventRecord {
	rec := EventRecord{
		Tick:       ev.Tick,
		Timestamp:  ev.Timestamp.UTC().Format(time.RFC3339Nano),
		Type:       string(ev.Type),
		EntityID:   ev.EntityID,
		EntityName: ev.EntityName,
		Species:    ev.Species,
		ParentID:   ev.ParentID,
		Trait:      ev.Trait,
		OldValue:   ev.OldValue,
		NewValue:   ev.NewValue,
		Cause:      ev.Cause,
		Severity:   ev.Severity,
		Message:    ev.Message,
	}
	if len(ev.Data) > 0 {
		if b, err := json.Marshal(ev.Data); err == nil {
			rec.Data = string(b)
		}
	}
	return rec
}

// OutputManager handles structured experiment output with CSV logging.
// It also acts as an event Sink writing to events.csv.
type OutputManager struct {
	dir       string
	ticksFile *os.File

	mu         sync.Mutex // guards eventsFile writes; events may arrive from an AsyncSink
	eventsFile *os.File

	// Track if headers have been written
	ticksHeaderWritten  bool
	eventsHeaderWritten bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "ticks.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating ticks.csv: %w", err)
	}
	om.ticksFile = f

	f, err = os.Create(filepath.Join(dir, "events.csv"))
	if err != nil {
		om.ticksFile.Close()
		return nil, fmt.Errorf("creating events.csv: %w", err)
	}
	om.eventsFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTick writes a tick stats record to ticks.csv.
func (om *OutputManager) WriteTick(stats TickStats) error {
	if om == nil {
		return nil
	}

	records := []TickStats{stats}

	if !om.ticksHeaderWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, om.ticksFile); err != nil {
			return fmt.Errorf("writing tick stats: %w", err)
		}
		om.ticksHeaderWritten = true
		return nil
	}
	// Subsequent writes skip headers
	if err := gocsv.MarshalWithoutHeaders(records, om.ticksFile); err != nil {
		return fmt.Errorf("writing tick stats: %w", err)
	}
	return nil
}

// Emit writes ev to events.csv.
func (om *OutputManager) Emit(ev SimulationEvent) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()

	records := []EventRecord{NewEventRecord(ev)}

	if !om.eventsHeaderWritten {
		if err := gocsv.Marshal(records, om.eventsFile); err != nil {
			return fmt.Errorf("writing event: %w", err)
		}
		om.eventsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.eventsFile); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.ticksFile != nil {
		if err := om.ticksFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	om.mu.Lock()
	defer om.mu.Unlock()
	if om.eventsFile != nil {
		if err := om.eventsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
