package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ps-vitor/immo-sys/backend/internal/api/models"
	"github.com/ps-vitor/immo-sys/backend/internal/domain"
	"github.com/ps-vitor/immo-sys/backend/internal/repositories"
	"github.com/ps-vitor/immo-sys/backend/internal/rows"
	"github.com/ps-vitor/immo-sys/backend/internal/services/bulk"
	"github.com/ps-vitor/immo-sys/backend/internal/services/importer"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

const maxUploadBytes = 10 << 20

// ImportHandler exposes the admin batch tools: CSV import and bulk edits.
type ImportHandler struct {
	tracker *importer.Tracker
	bulk    *bulk.Service
	log     *logger.Logger
}

func NewImportHandler(tracker *importer.Tracker, bulkService *bulk.Service, log *logger.Logger) *ImportHandler {
	return &ImportHandler{tracker: tracker, bulk: bulkService, log: log.Component("import-handler")}
}

func (h *ImportHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/import", h.handleStart).Methods(http.MethodPost)
	r.HandleFunc("/api/import/{id}", h.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/import/{id}/cancel", h.handleCancel).Methods(http.MethodPost)
	r.HandleFunc("/api/import/{id}", h.handleDismiss).Methods(http.MethodDelete)
	r.HandleFunc("/api/bulk", h.handleBulk).Methods(http.MethodPost)
}

// handleStart accepts a CSV either as the raw body or as the "file" field of a multipart
// form, queues it and answers 202 with the batch id.
func (h *ImportHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()
		src = file
	}

	records, err := rows.ReadCSV(src)
	if tooLarge(err) {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read csv")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "csv has no rows")
		return
	}

	id := h.tracker.Start(records)
	writeJSON(w, http.StatusAccepted, models.ImportAccepted{BatchID: id})
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (h *ImportHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	b, ok := h.tracker.Get(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown batch")
		return
	}
	writeJSON(w, http.StatusOK, models.NewBatchStatus(b))
}

func (h *ImportHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Cancel(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, "unknown batch")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *ImportHandler) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.Dismiss(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, "unknown batch")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ImportHandler) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req models.BulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx := r.Context()
	var (
		n       int
		matches []bulk.AlertMatch
		err     error
	)
	switch strings.ToLower(req.Action) {
	case "publish":
		n, matches, err = h.bulk.Publish(ctx, req.References)
	case "hide":
		n, err = h.bulk.Hide(ctx, req.References)
	case "delete":
		n, err = h.bulk.Delete(ctx, req.References)
	case "status":
		if req.Status == "" {
			writeError(w, http.StatusBadRequest, "missing status")
			return
		}
		status, ok := domain.ParseStatusStrict(string(req.Status))
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		n, err = h.bulk.SetStatus(ctx, req.References, status)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
		return
	}

	switch {
	case errors.Is(err, bulk.ErrNoTargets):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repositories.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "bulk operation failed")
	default:
		writeJSON(w, http.StatusOK, models.BulkResponse{Affected: n, Matches: matches})
	}
}
