package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"headshot/internal/http/handlers"
	"headshot/internal/middleware"
)

// Options carries the cross-cutting settings of the router.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
	StaticDir       string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Trace,
		middleware.Metrics,
		middleware.Logger(app.Logger, opts.CountryLookup),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/v1/styles", app.Styles)
	r.Get("/v1/results/archive", app.Archive)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/v1/generate/stream", app.GenerateStream)
		r.Post("/v1/generate", app.GenerateBatch)
		r.Post("/generate-stream", app.GenerateStream)
		r.Post("/generate", app.GenerateBatch)
	})

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Cache-Control", "private, max-age=3600")
			fs.ServeHTTP(w, r)
		})
	}

	return r
}
