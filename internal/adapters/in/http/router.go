// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shnoopysol/gif-portal/internal/adapters/in/http/handler"
	"github.com/shnoopysol/gif-portal/internal/adapters/in/http/middleware"
	"github.com/shnoopysol/gif-portal/internal/adapters/in/http/templates"
)

// RouterDeps collects everything injected from the DI container.
type RouterDeps struct {
	Sessions       *handler.SessionStore
	AllowedOrigins []string
}

// NewRouter sets up the portal routes.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS を外側、Recover を内側に置く（panic 時の 500 にも CORS ヘッダが付く）
	r.Use(middleware.CORS(deps.AllowedOrigins))
	r.Use(middleware.Recover)

	// Health check (always on)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if deps.Sessions == nil {
		return r
	}

	h := handler.NewPortalHandler(deps.Sessions, templates.Index)
	r.Get("/", h.Page)
	r.Get("/state", h.State)
	r.Get("/ws", h.Stream)

	r.Post("/connect", h.Connect)
	r.Post("/initialize", h.Initialize)
	r.Post("/links", h.Submit)
	r.Post("/input", h.Input)
	r.Post("/display-mode", h.ToggleDisplayMode)
	r.Post("/dismiss", h.DismissNotice)
	r.Post("/disconnect", h.Disconnect)

	return r
}
