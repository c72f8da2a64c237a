package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/middleware"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/models"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/service"
)

func (s *Server) handleCreateCycle(w http.ResponseWriter, r *http.Request) {
	var in service.CreateCycleInput
	if !decodeJSON(w, r, &in) {
		return
	}

	cycle, err := s.cycles.CreateCycle(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cycle)
}

func (s *Server) handleListCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := s.cycles.ListCycles(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	detail, err := s.cycles.GetCycle(r.Context(), chi.URLParam(r, "cycleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCompleteCycle(w http.ResponseWriter, r *http.Request) {
	cycle, err := s.cycles.CompleteCycle(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "cycleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycle)
}

type markPaymentRequest struct {
	Status models.PaymentStatus `json:"status"`
}

func (s *Server) handleMarkPayment(w http.ResponseWriter, r *http.Request) {
	var req markPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	payment, err := s.cycles.MarkPayment(r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "cycleID"), chi.URLParam(r, "memberID"), req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *Server) handleSendReminder(w http.ResponseWriter, r *http.Request) {
	notification, err := s.cycles.SendReminder(r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "cycleID"), chi.URLParam(r, "memberID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, notification)
}

func (s *Server) handleNextRecipient(w http.ResponseWriter, r *http.Request) {
	recipientID, err := s.cycles.SuggestNextRecipient(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"recipient_id": recipientID})
}
