package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/laurierboom/tournament-engine/handlers"
)

func InitRoutes(
	players *handlers.PlayerHandler,
	tournaments *handlers.TournamentHandler,
	matches *handlers.MatchHandler,
	ws *handlers.WebSocketHandler,
) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/players", func(r chi.Router) {
		r.Post("/", players.Create)
		r.Get("/", players.List)
		r.Get("/{id}", players.GetByID)
		r.Put("/{id}", players.UpdateProfile)
		r.Delete("/{id}", players.Delete)
		r.Get("/{id}/rating-history", players.RatingHistory)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Post("/", tournaments.Create)
		r.Get("/", tournaments.List)
		r.Get("/{id}", tournaments.GetByID)
		r.Delete("/{id}", tournaments.Delete)
		r.Get("/{id}/standings", tournaments.Standings)
		r.Get("/{id}/matches", matches.ListByTournament)

		r.Post("/{id}/players", tournaments.AddPlayer)
		r.Delete("/{id}/players/{playerID}", tournaments.RemovePlayer)
		r.Post("/{id}/start", tournaments.Start)
		r.Post("/{id}/rounds/complete", tournaments.CompleteRound)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{id}", matches.GetByID)
		r.Patch("/{id}/result", matches.SubmitResult)
	})

	router.Get("/ws/tournaments/{id}", ws.ServeWs)

	return router
}
