package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/yegors/ground-atc/internal/websocket"
	"github.com/yegors/ground-atc/pkg/logger"
)

// RouterOptions configures cross-cutting HTTP behaviour
type RouterOptions struct {
	AllowedOrigins    []string
	CommandsPerSecond float64 // shared by all HTTP command posts; <= 0 disables
	CommandBurst      int
}

// Router wires the handlers and the websocket hub into one chi mux
type Router struct {
	handler *Handler
	ws      *websocket.Server
	opts    RouterOptions
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewRouter creates a new API router. ws may be nil.
func NewRouter(handler *Handler, ws *websocket.Server, opts RouterOptions, log *logger.Logger) *Router {
	r := &Router{
		handler: handler,
		ws:      ws,
		opts:    opts,
		logger:  log.Named("api-router"),
	}
	if ws != nil {
		handler.clients = ws
	}
	if opts.CommandsPerSecond > 0 {
		burst := opts.CommandBurst
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(opts.CommandsPerSecond), burst)
	}
	return r
}

// Routes returns the HTTP handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)

	origins := rt.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", rt.handler.GetHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", rt.handler.GetSnapshot)
		r.With(rt.limitCommands).Post("/commands", rt.handler.PostCommand)
		r.Get("/commands", rt.handler.GetCommands)
		r.Get("/clearances", rt.handler.GetClearances)
		r.Post("/aircraft", rt.handler.PostAircraft)
		if rt.ws != nil {
			r.Get("/ws", rt.ws.HandleConnection)
		}
	})

	return r
}

func (rt *Router) limitCommands(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rt.limiter != nil && !rt.limiter.Allow() {
			WriteError(w, http.StatusTooManyRequests, "too many commands, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request through the application logger so the
// dashboard's stdout stays clean
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		rt.logger.Debug("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", ww.Status()),
			logger.Int("bytes", ww.BytesWritten()),
			logger.Duration("duration", time.Since(start)),
			logger.String("request_id", middleware.GetReqID(r.Context())))
	})
}
