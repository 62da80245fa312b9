package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skillforge/tournament-engine/handlers"
)

func SetupRoutes(
	router *chi.Mux,
	tournamentHandler *handlers.TournamentHandler,
	sessionHandler *handlers.SessionHandler,
	rewardHandler *handlers.RewardHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", tournamentHandler.CreateHandler)
		r.Get("/{tournamentID}", tournamentHandler.GetByIDHandler)
		r.Post("/{tournamentID}/transition", tournamentHandler.TransitionHandler)
		r.Get("/{tournamentID}/rankings", tournamentHandler.RankingsHandler)

		r.Get("/{tournamentID}/sessions", sessionHandler.ListByTournamentHandler)
		r.Post("/{tournamentID}/finalize-group-stage", sessionHandler.FinalizeGroupStageHandler)

		r.Post("/{tournamentID}/rewards/distribute", rewardHandler.DistributeHandler)
	})

	router.Route("/sessions", func(r chi.Router) {
		r.Post("/{sessionID}/results", sessionHandler.SubmitResultHandler)
	})
}
