package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	// UploadsDir, when set, is served read-only under /storage/uploads/.
	UploadsDir string
}

func NewRouter(h *Handlers, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestContext)
	r.Use(accessLog(h.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/heartbeat"))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, "Route not found", nil)
	})

	if opts.UploadsDir != "" {
		fs := http.StripPrefix("/storage/uploads/", http.FileServer(http.Dir(opts.UploadsDir)))
		r.Get("/storage/uploads/*", fs.ServeHTTP)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/refresh-token", h.refreshToken)
		r.Post("/forgot-password", h.forgotPassword)
		r.Post("/forgot-password-change", h.forgotPasswordChange)
		r.Post("/signup", h.createUser)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)

			r.Post("/logout", h.logout)
			r.Post("/change-password", h.changePassword)

			r.Get("/users", h.listUsers)
			r.Post("/user", h.createUser)
			r.Get("/user/{id}", h.getUser)
			r.Put("/user/{id}", h.updateUser)
			r.Delete("/user/{id}", h.deleteUser)
		})
	})

	return r
}
