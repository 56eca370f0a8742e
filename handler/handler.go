package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lambda-feedback/watchdeck/handler/schema"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/diag"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/events"
	"github.com/lambda-feedback/watchdeck/internal/sidecar/supervisor"
	"github.com/lambda-feedback/watchdeck/internal/watcher"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// maxBodySize bounds request bodies, which only ever carry a path.
const maxBodySize = 1 << 20

type WatcherHandlerParams struct {
	fx.In

	Watcher  watcher.Watcher
	Schema   *schema.Schema
	Recorder *diag.Recorder
	Hub      *events.Hub
	Log      *zap.Logger
}

// WatcherHandler serves the REST surface of the watcher. Commands are
// acknowledged with 202 once written to the worker; their results are
// delivered as events.
type WatcherHandler struct {
	watcher  watcher.Watcher
	schema   *schema.Schema
	recorder *diag.Recorder
	hub      *events.Hub
	log      *zap.Logger
}

func NewWatcherHandler(params WatcherHandlerParams) *WatcherHandler {
	return &WatcherHandler{
		watcher:  params.Watcher,
		schema:   params.Schema,
		recorder: params.Recorder,
		hub:      params.Hub,
		log:      params.Log,
	}
}

type addDirectoryRequest struct {
	Path string `json:"path"`
}

type pickDirectoryResponse struct {
	Path *string `json:"path"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Worker supervisor.Status `json:"worker"`
	Events events.Stats      `json:"events"`
}

// AddDirectory handles POST /directories.
func (h *WatcherHandler) AddDirectory(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Debug("failed to read body", zap.Error(err))
		writeError(w, log, ErrReadBody)
		return
	}

	if err := h.schema.Validate(schema.SchemaTypeAddDirectory, body); err != nil {
		log.Debug("invalid request", zap.Error(err))
		writeError(w, log, err)
		return
	}

	var req addDirectoryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, log, fmt.Errorf("%w: %v", ErrInvalidParams, err))
		return
	}

	if err := h.watcher.AddDirectory(r.Context(), req.Path); err != nil {
		writeError(w, log, err)
		return
	}

	writeAccepted(w, log)
}

// RemoveDirectory handles DELETE /directories/{id}.
func (h *WatcherHandler) RemoveDirectory(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	id := r.PathValue("id")

	if err := validateParams(h.schema, schema.SchemaTypeRemoveDirectory, map[string]string{"id": id}); err != nil {
		writeError(w, log, err)
		return
	}

	if err := h.watcher.RemoveDirectory(r.Context(), id); err != nil {
		writeError(w, log, err)
		return
	}

	writeAccepted(w, log)
}

// RequestDirectories handles POST /directories/refresh.
func (h *WatcherHandler) RequestDirectories(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	if err := h.watcher.RequestDirectories(r.Context()); err != nil {
		writeError(w, log, err)
		return
	}

	writeAccepted(w, log)
}

// PickDirectory handles POST /directories/pick. The path is null if
// the user cancelled the dialog.
func (h *WatcherHandler) PickDirectory(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	path, ok, err := h.watcher.PickDirectory(r.Context())
	if err != nil {
		writeError(w, log, err)
		return
	}

	var res pickDirectoryResponse
	if ok {
		res.Path = &path
	}

	writeJSON(w, log, http.StatusOK, res)
}

// Restart handles POST /worker/restart.
func (h *WatcherHandler) Restart(w http.ResponseWriter, r *http.Request) {
	log := h.requestLog(r)

	if err := h.watcher.Restart(r.Context()); err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, h.watcher.Status())
}

// Health handles GET /health. It reports 200 as long as the host is up,
// the worker state is informational.
func (h *WatcherHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.watcher.Status()

	res := healthResponse{
		Status: "ok",
		Worker: status,
		Events: h.hub.Stats(),
	}
	if !status.Running {
		res.Status = "degraded"
	}

	writeJSON(w, h.log, http.StatusOK, res)
}

// Diagnostics handles GET /diagnostics.
func (h *WatcherHandler) Diagnostics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, map[string]any{
		"records": h.recorder.Records(),
	})
}

func (h *WatcherHandler) requestLog(r *http.Request) *zap.Logger {
	return h.log.With(
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)
}

// validateParams validates params as if they had been sent as a body.
func validateParams(s *schema.Schema, t schema.SchemaType, params any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	return s.Validate(t, data)
}
