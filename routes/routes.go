package routes

import (
	"github.com/Dosada05/archery-system/handlers"
	"github.com/Dosada05/archery-system/middleware"
	"github.com/Dosada05/archery-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	bracketHandler *handlers.BracketHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret []byte,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/groups", bracketHandler.ListGroups)
	router.Get("/groups/entrants", bracketHandler.ListGroupEntrants)

	router.Route("/brackets", func(r chi.Router) {
		// Public read side: spectator scoreboards poll these.
		r.Get("/", bracketHandler.List)
		r.Get("/{bracketID}", bracketHandler.Get)
		r.Get("/{bracketID}/standings", bracketHandler.Standings)

		// Generation and export are organizer-only.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleOrganizer))

			r.Post("/generate", bracketHandler.Generate)
			r.Post("/{bracketID}/export", bracketHandler.Export)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{matchID}", matchHandler.Get)

		// Scoring is done by line judges; organizers can step in.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleJudge, models.RoleOrganizer))

			r.Put("/{matchID}/sets/{setNumber}", matchHandler.SaveSet)
			r.Post("/{matchID}/sets/{setNumber}/confirm", matchHandler.ConfirmSet)
			r.Post("/{matchID}/shootoff", matchHandler.ResolveShootoff)
		})
	})

	router.Get("/ws/brackets/{bracketID}", webSocketHandler.ServeWs)
}
