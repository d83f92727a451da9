package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/yegors/ground-atc/internal/simulation"
	"github.com/yegors/ground-atc/internal/websocket"
	"github.com/yegors/ground-atc/pkg/logger"
	"github.com/yegors/ground-atc/pkg/types"
)

// Simulator is the part of the simulation service the API drives
type Simulator interface {
	Execute(line string) (simulation.Result, error)
	Snapshot() *simulation.View
	AddAircraft(req simulation.NewAircraft) (simulation.AircraftView, error)
}

// History reads the command journal
type History interface {
	ListCommands(ctx context.Context, aircraft types.AircraftID, limit int) ([]*simulation.CommandRecord, error)
	ListClearances(ctx context.Context, aircraft types.AircraftID, limit int) ([]*simulation.ClearanceRecord, error)
}

// ClientCounter reports connected streaming clients
type ClientCounter interface {
	ClientCount() int
}

// Handler contains the API handlers
type Handler struct {
	sim     Simulator
	history History
	clients ClientCounter // set by NewRouter when the websocket hub is mounted
	logger  *logger.Logger
}

// NewHandler creates a new API handler. history may be nil when the journal is disabled.
func NewHandler(sim Simulator, history History, log *logger.Logger) *Handler {
	return &Handler{
		sim:     sim,
		history: history,
		logger:  log.Named("api-handler"),
	}
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	v := h.sim.Snapshot()
	health := map[string]any{
		"status":           "ok",
		"sequence":         v.Sequence,
		"sim_time_seconds": v.SimTimeSeconds,
		"aircraft_count":   len(v.Aircraft),
		"journal":          h.history != nil,
	}
	if h.clients != nil {
		health["websocket_clients"] = h.clients.ClientCount()
	}
	WriteJSON(w, http.StatusOK, health)
}

// GetSnapshot returns the latest published world view
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.sim.Snapshot().JSON()
	if err != nil {
		h.logger.Error("Failed to encode snapshot", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to encode snapshot")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// PostCommand executes one operator line
func (h *Handler) PostCommand(w http.ResponseWriter, r *http.Request) {
	var req websocket.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := h.sim.Execute(req.Line)
	result := websocket.NewCommandResult(req.ID, res, err)
	if err != nil {
		h.logger.Debug("Command rejected via API",
			logger.String("line", req.Line),
			logger.String("category", string(result.Category)))
	}
	WriteJSON(w, statusFor(result.Category), result)
}

// GetCommands lists journaled commands, newest first
func (h *Handler) GetCommands(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		WriteError(w, http.StatusServiceUnavailable, "journal disabled")
		return
	}
	aircraft, limit, ok := parseHistoryQuery(w, r)
	if !ok {
		return
	}
	records, err := h.history.ListCommands(r.Context(), aircraft, limit)
	if err != nil {
		h.logger.Error("Failed to list commands", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"commands": records,
		"count":    len(records),
	})
}

// GetClearances lists issued clearances, newest first
func (h *Handler) GetClearances(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		WriteError(w, http.StatusServiceUnavailable, "journal disabled")
		return
	}
	aircraft, limit, ok := parseHistoryQuery(w, r)
	if !ok {
		return
	}
	records, err := h.history.ListClearances(r.Context(), aircraft, limit)
	if err != nil {
		h.logger.Error("Failed to list clearances", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"clearances": records,
		"count":      len(records),
	})
}

// PostAircraft adds a parked aircraft or an arrival
func (h *Handler) PostAircraft(w http.ResponseWriter, r *http.Request) {
	var req simulation.NewAircraft
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	view, err := h.sim.AddAircraft(req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, simulation.ErrDuplicateAircraft) || simulation.Classify(err) == simulation.CategoryDenied {
			status = http.StatusConflict
		}
		WriteError(w, status, err.Error())
		return
	}

	h.logger.Info("Created aircraft via API",
		logger.String("aircraft", string(view.ID)),
		logger.String("state", string(view.State)))
	WriteJSON(w, http.StatusCreated, map[string]any{
		"status":   "success",
		"aircraft": view,
	})
}

func parseHistoryQuery(w http.ResponseWriter, r *http.Request) (types.AircraftID, int, bool) {
	aircraft := types.ParseAircraftID(r.URL.Query().Get("aircraft"))
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return "", 0, false
		}
		limit = n
	}
	return aircraft, limit, true
}

// statusFor maps a command verdict to an HTTP status
func statusFor(c simulation.Category) int {
	switch c {
	case "":
		return http.StatusOK
	case simulation.CategoryParse:
		return http.StatusBadRequest
	case simulation.CategoryIllegalTransition, simulation.CategoryDenied:
		return http.StatusConflict
	case websocket.CategoryRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes {"error": message}
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
