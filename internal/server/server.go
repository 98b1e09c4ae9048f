// Package server exposes the draft helper over HTTP.
package server

import (
	"net/http"

	"dota-draft-helper/internal/middleware"
	"dota-draft-helper/internal/ratelimit"
	"dota-draft-helper/internal/service"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// RateStatus reports the outbound request budget in use.
type RateStatus interface {
	Status() ratelimit.Status
}

type Server struct {
	teams     *service.TeamService
	stats     *service.StatsService
	sync      *service.SyncOrchestrator
	matches   *service.TeamMatchService
	detection *service.TeamDetectionService
	transfer  *service.TransferService
	heroes    *service.HeroService
	rate      RateStatus
	logger    zerolog.Logger
}

func NewServer(
	teams *service.TeamService,
	stats *service.StatsService,
	sync *service.SyncOrchestrator,
	matches *service.TeamMatchService,
	detection *service.TeamDetectionService,
	transfer *service.TransferService,
	heroes *service.HeroService,
	rate RateStatus,
	logger zerolog.Logger,
) *Server {
	return &Server{
		teams:     teams,
		stats:     stats,
		sync:      sync,
		matches:   matches,
		detection: detection,
		transfer:  transfer,
		heroes:    heroes,
		rate:      rate,
		logger:    logger,
	}
}

// Handler builds the router with CORS and request id middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/heroes", s.listHeroes)
		r.Get("/ratelimit", s.rateLimitStatus)

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", s.listTeams)
			r.Post("/", s.createTeam)
			r.Post("/detect", s.detectTeam)
			r.Post("/parse-roster", s.parseRoster)
			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", s.getTeam)
				r.Put("/", s.updateTeam)
				r.Delete("/", s.deleteTeam)
				r.Post("/favorite", s.toggleFavorite)
				r.Put("/manual-heroes", s.setManualHeroes)
				r.Post("/sync", s.syncTeam)
				r.Get("/stats", s.teamStats)
				r.Get("/stats/stream", s.streamTeamStats)
				r.Get("/stats/ws", s.socketTeamStats)
				r.Get("/matches", s.listTeamMatches)
				r.Post("/matches/refresh", s.refreshTeamMatches)
			})
		})

		r.Route("/players", func(r chi.Router) {
			r.Post("/sync", s.syncPlayers)
			r.Get("/{playerID}/stats", s.playerStats)
			r.Delete("/{playerID}/cache", s.clearPlayerCache)
		})

		r.Route("/draft", func(r chi.Router) {
			r.Get("/order", s.draftOrder)
			r.Post("/analyze", s.analyzeDraft)
			r.Post("/select", s.selectHero)
		})

		r.Get("/export", s.exportData)
		r.Post("/import", s.importData)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listHeroes(w http.ResponseWriter, r *http.Request) {
	heroes, err := s.heroes.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, heroes)
}

func (s *Server) rateLimitStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rate.Status())
}
