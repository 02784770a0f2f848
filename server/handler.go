// Package server exposes an Ecosystem over HTTP with hertz.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/pthm-cable/garden/components"
	"github.com/pthm-cable/garden/simulation"
	"github.com/pthm-cable/garden/telemetry"
	"github.com/pthm-cable/garden/traits"
	"github.com/pthm-cable/garden/weather"
)

// MaxTicksPerRequest bounds a single POST /api/tick.
const MaxTicksPerRequest = 10000

// ErrBadRequest marks malformed query parameters or bodies.
var ErrBadRequest = errors.New("bad request")

// Handler serves one ecosystem. Every request holds the mutex, so ticks and
// reads never interleave.
type Handler struct {
	mu     sync.Mutex
	eco    *simulation.Ecosystem
	events *telemetry.Recorder
	log    telemetry.Logger
}

// NewHandler wraps eco. events must be the recorder eco emits into; it backs
// GET /api/events.
func NewHandler(eco *simulation.Ecosystem, events *telemetry.Recorder, log telemetry.Logger) *Handler {
	if log == nil {
		log = telemetry.NopLogger()
	}
	if events == nil {
		events = telemetry.NewRecorder()
	}
	return &Handler{eco: eco, events: events, log: log}
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(s *server.Hertz) {
	v1 := s.Group("/api")
	v1.POST("/tick", h.tick)
	v1.GET("/state", h.state)
	v1.GET("/entities", h.entities)
	v1.GET("/events", h.listEvents)
	v1.GET("/lighting", h.lighting)
	v1.POST("/interventions", h.intervene)
	v1.POST("/disasters", h.disaster)
}

type tickResponse struct {
	Ticks       int                          `json:"ticks"`
	Summary     simulation.PopulationSummary `json:"summary"`
	Environment components.Environment       `json:"environment"`
	Transitions []weather.Transition         `json:"transitions,omitempty"`
	Consumed    int                          `json:"consumed"`
	Decomposed  int                          `json:"decomposed"`
}

func (h *Handler) tick(c context.Context, ctx *app.RequestContext) {
	n, err := intQuery(ctx, "count", 1)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if n < 1 || n > MaxTicksPerRequest {
		writeError(ctx, fmt.Errorf("%w: count must be in [1, %d]", ErrBadRequest, MaxTicksPerRequest))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	resp := tickResponse{Ticks: n}
	for i := 0; i < n; i++ {
		res := h.eco.Step()
		if res.Transition != nil {
			resp.Transitions = append(resp.Transitions, *res.Transition)
		}
		resp.Consumed += len(res.Consumed)
		resp.Decomposed += len(res.Decomposed)
		resp.Summary = res.Summary
		resp.Environment = res.Environment
	}
	h.log.Debug("ticks advanced", "count", n, "tick", resp.Environment.Tick)
	ctx.JSON(consts.StatusOK, resp)
}

type stateResponse struct {
	Summary     simulation.PopulationSummary `json:"summary"`
	Environment components.Environment       `json:"environment"`
	Lighting    weather.LightingContext      `json:"lighting"`
}

func (h *Handler) state(c context.Context, ctx *app.RequestContext) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ctx.JSON(consts.StatusOK, stateResponse{
		Summary:     h.eco.Summary(),
		Environment: h.eco.Environment(),
		Lighting:    h.eco.Lighting(),
	})
}

func (h *Handler) entities(c context.Context, ctx *app.RequestContext) {
	var (
		want    *traits.Species
		alive   *bool
		species = string(ctx.Query("species"))
		aliveQ  = string(ctx.Query("alive"))
	)
	if species != "" {
		sp, err := traits.ParseSpecies(species)
		if err != nil {
			writeError(ctx, err)
			return
		}
		want = &sp
	}
	if aliveQ != "" {
		b, err := strconv.ParseBool(aliveQ)
		if err != nil {
			writeError(ctx, fmt.Errorf("%w: alive: %v", ErrBadRequest, err))
			return
		}
		alive = &b
	}

	h.mu.Lock()
	all := h.eco.Entities()
	h.mu.Unlock()

	out := make([]*components.Entity, 0, len(all))
	for _, e := range all {
		if want != nil && e.Species() != *want {
			continue
		}
		if alive != nil && e.IsAlive != *alive {
			continue
		}
		out = append(out, e)
	}
	ctx.JSON(consts.StatusOK, map[string]any{"entities": out, "count": len(out)})
}

func (h *Handler) listEvents(c context.Context, ctx *app.RequestContext) {
	since, err := intQuery(ctx, "since", 0)
	if err != nil {
		writeError(ctx, err)
		return
	}
	evs := h.events.Since(int64(since))
	if evs == nil {
		evs = []telemetry.SimulationEvent{}
	}
	ctx.JSON(consts.StatusOK, map[string]any{"events": evs, "count": len(evs)})
}

func (h *Handler) lighting(c context.Context, ctx *app.RequestContext) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ctx.JSON(consts.StatusOK, h.eco.Lighting())
}

func (h *Handler) intervene(c context.Context, ctx *app.RequestContext) {
	var iv simulation.Intervention
	if err := decodeJSON(ctx, &iv); err != nil {
		writeError(ctx, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.eco.Apply(iv); err != nil {
		writeError(ctx, err)
		return
	}
	h.log.Info("intervention applied", "action", iv.Action, "tick", h.eco.Tick())
	ctx.JSON(consts.StatusOK, map[string]any{"tick": h.eco.Tick(), "summary": h.eco.Summary()})
}

func (h *Handler) disaster(c context.Context, ctx *app.RequestContext) {
	var d simulation.Disaster
	if err := decodeJSON(ctx, &d); err != nil {
		writeError(ctx, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	n := h.eco.TriggerDisaster(d)
	ctx.JSON(consts.StatusOK, map[string]any{"tick": h.eco.Tick(), "victims": n, "summary": h.eco.Summary()})
}

func intQuery(ctx *app.RequestContext, key string, def int) (int, error) {
	raw := string(ctx.Query(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadRequest, key, err)
	}
	return n, nil
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrBadRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, traits.ErrUnknownSpecies):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_species", err.Error())
	case errors.Is(err, simulation.ErrNoSuchWeather):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_weather", err.Error())
	case errors.Is(err, simulation.ErrUnknownAction):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_action", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
