package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"
)

// evalLog appends one CSV row per evaluation, prints progress, and tracks
// the best parameters seen. Evaluations arrive sequentially.
type evalLog struct {
	f        *os.File
	w        *csv.Writer
	maxEvals int
	start    time.Time

	count       int
	bestFitness float64
	best        []float64
}

func newEvalLog(path string, params *ParamVector, maxEvals int) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	l := &evalLog{f: f, w: csv.NewWriter(f), maxEvals: maxEvals, start: time.Now(), bestFitness: math.Inf(1)}

	header := []string{"eval", "fitness", "margin", "survived"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return l, nil
}

// Record logs one evaluation of raw parameter values.
func (l *evalLog) Record(raw []float64, fitness, margin float64, survived int) {
	l.count++
	if fitness < l.bestFitness {
		l.bestFitness = fitness
		l.best = append([]float64(nil), raw...)
	}

	row := []string{
		strconv.Itoa(l.count),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(margin, 'f', 4, 64),
		strconv.Itoa(survived),
	}
	for _, v := range raw {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	_ = l.w.Write(row)
	l.w.Flush()

	elapsed := time.Since(l.start)
	eta := time.Duration(l.maxEvals-l.count) * (elapsed / time.Duration(l.count))
	fmt.Printf("Eval %d/%d: margin=%.3f survived=%d (best=%.3f) | elapsed: %s, ETA: %s\n",
		l.count, l.maxEvals, margin, survived, l.bestFitness, formatDuration(elapsed), formatDuration(eta))
}

func (l *evalLog) Best() []float64      { return l.best }
func (l *evalLog) BestFitness() float64 { return l.bestFitness }
func (l *evalLog) Count() int           { return l.count }

// Close flushes and closes the CSV file.
func (l *evalLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// formatDuration formats d as 1h02m03s, or 2m03s below an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
