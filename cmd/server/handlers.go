package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lbarbosa/docpipe"
	"github.com/lbarbosa/docpipe/store"
)

// maxUploadBytes bounds the multipart form held in memory per request.
const maxUploadBytes = 50 << 20 // 50MB

type handler struct {
	pipeline *docpipe.Pipeline
}

func newHandler(p *docpipe.Pipeline) *handler {
	return &handler{pipeline: p}
}

// POST /process_document
// Accepts a multipart upload ("file" field), runs the full pipeline, and
// returns the assembled result.
func (h *handler) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form with a 'file' field")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer file.Close()

	result, err := h.pipeline.Process(ctx, header.Filename, file)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, docpipe.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		slog.Error("process error", "filename", header.Filename, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /history?limit=N
func (h *handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	hs := h.pipeline.History()
	if hs == nil {
		writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := hs.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list history")
		slog.Error("history error", "error", err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "document processing API is healthy",
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
