package api

import (
	"net/http"
	"time"

	"citylog/internal/api/handler"
	"citylog/internal/api/middleware"
	"citylog/internal/app/service"
	"citylog/internal/common"
	"citylog/internal/common/security"
	"citylog/internal/domain/model"
	"citylog/internal/domain/repository"
	"citylog/internal/platform/config"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	cfg *config.Config,
	tokens *security.TokenIssuer,
	users repository.UserRepository,
	authService *service.AuthService,
	userService *service.UserService,
	cityService *service.CityService,
	counter middleware.Counter,
) http.Handler {
	r := chi.NewRouter()
	respond := common.NewResponder(cfg.IsDev())

	// Base middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Finds the token in "Authorization: Bearer <token>" or the "jwt"
	// cookie and puts the verification result in context; the Authenticator
	// middleware decides what to do with it per route group.
	r.Use(jwtauth.Verifier(tokens.JWTAuth()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authenticate := middleware.Authenticator(users, respond)
	adminOnly := middleware.RequireRole(respond, model.RoleAdmin)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.RateLimit(counter, int64(cfg.RateLimitMax), cfg.RateLimitWindow, respond))

		authHandler := handler.NewAuthHandler(authService, respond, cfg.CookieExp, !cfg.IsDev())
		userHandler := handler.NewUserHandler(userService, respond)
		cityHandler := handler.NewCityHandler(cityService, respond)

		v1.Route("/users", func(u chi.Router) {
			authHandler.RegisterPublicRoutes(u)

			u.Group(func(protected chi.Router) {
				protected.Use(authenticate)
				authHandler.RegisterProtectedRoutes(protected)
				userHandler.RegisterProtectedRoutes(protected)

				protected.Group(func(admin chi.Router) {
					admin.Use(adminOnly)
					userHandler.RegisterAdminRoutes(admin)
				})
			})
		})

		v1.Route("/cities", func(c chi.Router) {
			c.Use(authenticate)
			cityHandler.RegisterRoutes(c)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusNotFound, map[string]interface{}{
			"status":  "fail",
			"message": "can not find " + r.URL.Path + " on this server",
		})
	})

	return r
}
