package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/middleware"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.notifications.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	err := s.notifications.MarkRead(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "notificationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.MarkAllRead(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	err := s.notifications.Delete(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "notificationID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
