package router

import (
	"net/http"

	_ "pet-registry/docs"
	mem "pet-registry/internal/adapters/storage/memory"
	"pet-registry/internal/domain/pets"
	"pet-registry/internal/middleware"
	"pet-registry/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// Opcional: si no viene, usa in-memory (modo dev / tests).
	Repo pets.Repository

	Logger logger.Logger

	// Si viene, /api responde 503 hasta que la base esté conectada.
	// Sólo para topología networked-only.
	RequireConnection middleware.ConnectionState
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	repo := opts.Repo
	if repo == nil {
		repo = mem.NewPetRepo()
	}

	petsSvc := pets.NewService(repo, log)

	r.Route("/api", func(api chi.Router) {
		if opts.RequireConnection != nil {
			api.Use(middleware.RequireConnection(opts.RequireConnection))
		}
		pets.RegisterRoutes(api, petsSvc)
	})

	return r
}
