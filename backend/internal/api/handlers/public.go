package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ps-vitor/immo-sys/backend/internal/alerts"
	"github.com/ps-vitor/immo-sys/backend/internal/api/services"
	"github.com/ps-vitor/immo-sys/backend/internal/mortgage"
	"github.com/ps-vitor/immo-sys/backend/pkg/logger"
)

type LeadSubmitter interface {
	Submit(ctx context.Context, lead services.Lead) error
}

// PublicHandler serves the visitor-facing helpers: saved searches, the loan simulator
// and the contact form relay.
type PublicHandler struct {
	alerts *alerts.Store
	leads  LeadSubmitter
	log    *logger.Logger
}

func NewPublicHandler(store *alerts.Store, leads LeadSubmitter, log *logger.Logger) *PublicHandler {
	return &PublicHandler{alerts: store, leads: leads, log: log.Component("public-handler")}
}

func (h *PublicHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/alerts", h.handleListAlerts).Methods(http.MethodGet)
	r.HandleFunc("/api/alerts", h.handleAddAlert).Methods(http.MethodPost)
	r.HandleFunc("/api/alerts/{id}", h.handleDeleteAlert).Methods(http.MethodDelete)
	r.HandleFunc("/api/mortgage", h.handleMortgage).Methods(http.MethodGet)
	r.HandleFunc("/api/leads", h.handleLead).Methods(http.MethodPost)
}

func (h *PublicHandler) handleListAlerts(w http.ResponseWriter, _ *http.Request) {
	list := h.alerts.Get()
	if list == nil {
		list = []alerts.Alert{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *PublicHandler) handleAddAlert(w http.ResponseWriter, r *http.Request) {
	var a alerts.Alert
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	saved, err := h.alerts.Add(r.Context(), a)
	if err != nil {
		h.log.Error("save alert", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "could not save alert")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *PublicHandler) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	err := h.alerts.Delete(r.Context(), mux.Vars(r)["id"])
	switch {
	case errors.Is(err, alerts.ErrNotFound):
		writeError(w, http.StatusNotFound, "alert not found")
	case err != nil:
		h.log.Error("delete alert", logger.Err(err))
		writeError(w, http.StatusInternalServerError, "could not delete alert")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleMortgage expects amount (or principal), rate as an annual percentage, and years.
func (h *PublicHandler) handleMortgage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount := q.Get("amount")
	if amount == "" {
		amount = q.Get("principal")
	}
	principal, err1 := strconv.ParseFloat(amount, 64)
	rate, err2 := strconv.ParseFloat(q.Get("rate"), 64)
	years, err3 := strconv.Atoi(q.Get("years"))
	if err := errors.Join(err1, err2, err3); err != nil {
		writeError(w, http.StatusBadRequest, "amount, rate and years must be numbers")
		return
	}

	s, err := mortgage.Compute(principal, rate, years)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *PublicHandler) handleLead(w http.ResponseWriter, r *http.Request) {
	var lead services.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	err := h.leads.Submit(r.Context(), lead)
	switch {
	case errors.Is(err, services.ErrInvalidLead):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrRelayDisabled):
		writeError(w, http.StatusServiceUnavailable, "contact form unavailable")
	case err != nil:
		h.log.Warn("relay lead", logger.Err(err))
		writeError(w, http.StatusBadGateway, "could not send message")
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}
