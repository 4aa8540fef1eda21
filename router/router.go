package router

import (
	"net/http"

	articleHandler "drafthub/internal/article"
	"drafthub/internal/generation"
	"drafthub/internal/identity"
	"drafthub/internal/session"
	"drafthub/middleware"
	"drafthub/pkg/metrics"
	"drafthub/socket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Deps struct {
	Articles   *articleHandler.ArticleHandler
	Identity   *identity.Handler
	Generation *generation.Handler
	Hub        *socket.Hub
	Metrics    *metrics.Metrics // optional

	JWTSecret      []byte
	AllowedOrigins []string
}

func Setup(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.CORS(d.AllowedOrigins))

	auth := middleware.Auth(d.JWTSecret)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// The websocket handshake must not get a JSON content type forced on it.
	r.With(auth).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(d.Hub, w, r, session.FromContext(r.Context()))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", d.Identity.Register)
			r.Post("/login", d.Identity.Login)
			r.With(auth).Post("/logout", d.Identity.Logout)
			r.With(auth).Get("/me", d.Identity.Me)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Route("/articles", func(r chi.Router) {
				r.Get("/", d.Articles.ListArticles)  // GET /api/articles?status=draft
				r.Post("/", d.Articles.CreateArticle) // POST /api/articles

				r.Route("/{articleID}", func(r chi.Router) {
					r.Get("/", d.Articles.GetArticle)
					r.Patch("/", d.Articles.UpdateArticle)
					r.Delete("/", d.Articles.DeleteArticle)
					r.Get("/sections", d.Articles.GetSections)
					r.Get("/markdown", d.Articles.GetMarkdown)
				})
			})

			r.Route("/generate", func(r chi.Router) {
				r.Post("/structure", d.Generation.GenerateStructure)
				r.Post("/advice", d.Generation.GenerateAdvice)
			})
		})
	})

	return r
}

// Diagnostics serves the metrics scrape endpoint on its own listener.
func Diagnostics(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Get("/metrics", m.Handler().ServeHTTP)
	return r
}
