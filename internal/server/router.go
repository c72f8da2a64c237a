// Package server wires the domain services into the HTTP API: JSON routes
// under /api/v1, the websocket change feed, metrics and health.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/auth"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/middleware"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/reporting"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/service"
	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/storage"
)

// Server holds the services behind the HTTP handlers.
type Server struct {
	auth          *service.AuthService
	groups        *service.GroupService
	cycles        *service.CycleService
	notifications *service.NotificationService
	reports       *reporting.Service
	jwtManager    *auth.JWTManager
	bus           *storage.Bus
}

// New creates a Server over a store and its services.
func New(
	authSvc *service.AuthService,
	groups *service.GroupService,
	cycles *service.CycleService,
	notifications *service.NotificationService,
	reports *reporting.Service,
	jwtManager *auth.JWTManager,
	bus *storage.Bus,
) *Server {
	return &Server{
		auth:          authSvc,
		groups:        groups,
		cycles:        cycles,
		notifications: notifications,
		reports:       reports,
		jwtManager:    jwtManager,
		bus:           bus,
	}
}

// Routes builds the router. The caller mounts it and adds static serving.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// The websocket feed accepts a Bearer header when the client can send
	// one; browsers cannot set headers on a websocket dial, so a token
	// query parameter is the fallback.
	r.With(middleware.OptionalAuth(s.jwtManager)).Get("/ws", s.handleChangeFeed)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(s.jwtManager))

			r.Get("/auth/me", s.handleCurrentUser)

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", s.handleCreateGroup)
				r.Get("/", s.handleListGroups)

				r.Route("/{groupID}", func(r chi.Router) {
					r.Get("/", s.handleGetGroup)
					r.Put("/", s.handleUpdateGroup)
					r.Delete("/", s.handleDeleteGroup)

					r.Post("/members", s.handleJoinGroup)
					r.Get("/members", s.handleListMembers)
					r.Delete("/members/me", s.handleLeaveGroup)
					r.Patch("/members/{userID}", s.handleSetAdmin)

					r.Post("/cycles", s.handleCreateCycle)
					r.Get("/cycles", s.handleListCycles)
					r.Get("/next-recipient", s.handleNextRecipient)
					r.Get("/report", s.handleGroupReport)
				})
			})

			r.Route("/cycles/{cycleID}", func(r chi.Router) {
				r.Get("/", s.handleGetCycle)
				r.Post("/complete", s.handleCompleteCycle)
				r.Put("/payments/{memberID}", s.handleMarkPayment)
				r.Post("/reminders/{memberID}", s.handleSendReminder)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Post("/read-all", s.handleMarkAllRead)
				r.Post("/{notificationID}/read", s.handleMarkRead)
				r.Delete("/{notificationID}", s.handleDeleteNotification)
			})
		})
	})

	return r
}
