package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fitfun/competition-system/handlers"
	"github.com/fitfun/competition-system/middleware"
	"github.com/fitfun/competition-system/models"
)

// SetupRoutes mounts every endpoint on the given router.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	competitionHandler *handlers.CompetitionHandler,
	measurementHandler *handlers.MeasurementHandler,
	notificationHandler *handlers.NotificationHandler,
	testimonialHandler *handlers.TestimonialHandler,
	adminHandler *handlers.AdminHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin, models.RoleSuperAdmin)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/openapi.json"),
	))
	router.Handle("/docs/*", http.StripPrefix("/docs/", http.FileServer(http.Dir("docs"))))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.RegisterHandler)
		r.Post("/login", authHandler.LoginHandler)
	})

	router.Route("/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", userHandler.MeHandler)
		r.Patch("/me", userHandler.UpdateProfileHandler)
		r.Delete("/me", userHandler.DeleteAccountHandler)
		r.Post("/me/photos/{kind}", userHandler.UploadPhotoHandler)
		r.Get("/{userID}", userHandler.GetByIDHandler)
	})

	router.Route("/competitions", func(r chi.Router) {
		r.Get("/", competitionHandler.ListHandler)
		r.Get("/{competitionID}", competitionHandler.GetByIDHandler)
		r.Get("/{competitionID}/leaderboard", competitionHandler.LeaderboardHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", competitionHandler.CreateHandler)
			r.Get("/mine", competitionHandler.ListMineHandler)
			r.Patch("/{competitionID}", competitionHandler.UpdateHandler)
			r.Post("/{competitionID}/cancel", competitionHandler.CancelHandler)
			r.Post("/{competitionID}/join", competitionHandler.JoinHandler)
			r.Get("/{competitionID}/measurements", measurementHandler.ListForCompetitionHandler)
			r.Post("/{competitionID}/requests/{userID}/approve", competitionHandler.ApproveJoinHandler)
			r.Post("/{competitionID}/requests/{userID}/reject", competitionHandler.RejectJoinHandler)
		})
	})

	router.Route("/measurements", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/", measurementHandler.SubmitHandler)
		r.Get("/", measurementHandler.ListHandler)
		r.Get("/reminders", measurementHandler.RemindersHandler)
		r.Patch("/{measurementID}", measurementHandler.UpdateHandler)
		r.Delete("/{measurementID}", measurementHandler.DeleteHandler)
	})

	router.Route("/notifications", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", notificationHandler.ListHandler)
		r.Post("/read-all", notificationHandler.MarkAllReadHandler)
		r.Post("/{notificationID}/read", notificationHandler.MarkReadHandler)
	})

	router.Route("/testimonials", func(r chi.Router) {
		r.Get("/", testimonialHandler.ListHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", testimonialHandler.SubmitHandler)
		})
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(adminOnly)
			r.Post("/{testimonialID}/moderate", testimonialHandler.ModerateHandler)
			r.Delete("/{testimonialID}", testimonialHandler.DeleteHandler)
		})
	})

	router.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(adminOnly)
		r.Get("/users", adminHandler.ListUsersHandler)
		r.Delete("/users/{userID}", adminHandler.DeleteUserHandler)
		r.Get("/competitions", adminHandler.ListCompetitionsHandler)
		r.Delete("/competitions/{competitionID}", adminHandler.DeleteCompetitionHandler)
		r.Get("/testimonials", testimonialHandler.ListAllHandler)
		r.Get("/stats", adminHandler.StatsHandler)
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/ws/notifications", webSocketHandler.ServeWs)
	})
}
