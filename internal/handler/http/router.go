package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/schedule-checker/internal/handler/http/middleware"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterOptions struct {
	Env            string
	Version        string
	AllowedOrigins []string
	LogLevel       slog.Level
}

// NewRouter wires the API. With a nil jwtService every route is public.
func NewRouter(opts RouterOptions, jwtService jwt.Service, validationHandler ValidationHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(opts.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       opts.LogLevel,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "schedule-checker"),
		slog.String("version", opts.Version),
		slog.String("env", opts.Env),
	)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: false,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1/validations", func(r chi.Router) {
		// EventSource cannot send headers, so the stream checks its own query token.
		r.Get("/stream", validationHandler.Stream)

		r.Group(func(r chi.Router) {
			if jwtService != nil {
				r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
				r.Use(middleware.AuthRequired)
				r.Get("/stream/token", validationHandler.GetSSEToken)
			}

			r.Post("/", validationHandler.Validate)
			r.Get("/runs", validationHandler.ListRuns)
			r.Get("/runs/{id}/cells", validationHandler.GetRunCells)
			r.Get("/files/*", validationHandler.DownloadFile)
		})
	})
	return r
}
