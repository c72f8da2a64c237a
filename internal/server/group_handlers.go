package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/middleware"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/service"
)

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var in service.CreateGroupInput
	if !decodeJSON(w, r, &in) {
		return
	}

	group, err := s.groups.CreateGroup(r.Context(), middleware.GetUserID(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.ListGroups(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := s.groups.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateGroupInput
	if !decodeJSON(w, r, &in) {
		return
	}

	group, err := s.groups.UpdateGroup(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	err := s.groups.DeleteGroup(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	m, err := s.groups.Join(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	err := s.groups.Leave(r.Context(),
		middleware.GetUserID(r.Context()), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := s.groups.ListMembers(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type setAdminRequest struct {
	IsAdmin bool `json:"is_admin"`
}

func (s *Server) handleSetAdmin(w http.ResponseWriter, r *http.Request) {
	var req setAdminRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := s.groups.SetAdmin(r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"), req.IsAdmin)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleGroupReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.GroupReport(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
