package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/jaminalder/tic-tac-toe-minimax/internal/app"
)

// Options tune the HTTP layer.
type Options struct {
	DefaultMode app.Mode
	Heartbeat   time.Duration
	AccessLog   bool
}

// NewServer wires routes and returns an http.Handler.
func NewServer(s *app.Service, log *zap.SugaredLogger, opts Options) http.Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = app.ModeHumanVsComputer
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	h := &handlers{svc: s, tpl: loadTemplates(), log: log, opts: opts}
	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/play", h.play)
		r.Post("/computer", h.computer)
		r.Post("/reset", h.reset)
		r.Get("/events", h.events)
	})

	r.Route("/api/games", func(r chi.Router) {
		r.Post("/", h.apiCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.apiGet)
			r.Post("/join", h.apiJoin)
			r.Post("/moves", h.apiMove)
			r.Post("/computer", h.apiComputer)
			r.Post("/reset", h.apiReset)
			r.Get("/ws", h.ws)
		})
	})
	return r
}
