package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gopedidos/internal/api/customer"
	"gopedidos/internal/api/httpx"
	"gopedidos/internal/api/order"
	"gopedidos/internal/api/product"
	"gopedidos/internal/api/session"
	"gopedidos/internal/pkg/cache"
	"gopedidos/internal/pkg/logger"
	"gopedidos/internal/pkg/middleware"
	"gopedidos/internal/pkg/token"
)

// ReadinessProbe reporta se as conexões de armazenamento estão prontas.
type ReadinessProbe interface {
	Ready() bool
}

// Deps são as dependências já inicializadas que o roteador monta.
type Deps struct {
	Customers *customer.Handler
	Products  *product.Handler
	Orders    *order.Handler
	Sessions  *session.Handler

	Tokens     token.TokenService
	Cache      cache.Client
	Readiness  ReadinessProbe
	Gatherer   prometheus.Gatherer
	RateLimit  int
	RateWindow time.Duration
	ReqTimeout time.Duration
	Logger     logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if d.ReqTimeout > 0 {
		r.Use(chimiddleware.Timeout(d.ReqTimeout))
	}

	// Health checks
	r.Get("/ping", PingHandler)
	r.Get("/readyz", readyHandler(d.Readiness))
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", d.Sessions.CreateSessionHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(d.Tokens))
			r.Use(middleware.RateLimiter(d.Cache, d.RateLimit, d.RateWindow, d.Logger))

			r.Route("/customers", d.Customers.Routes)
			r.Route("/products", d.Products.Routes)
			r.Route("/orders", d.Orders.Routes)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Rota não encontrada")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Método não permitido")
	})

	return r
}

// PingHandler é o health check de liveness.
func PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func readyHandler(probe ReadinessProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if probe != nil && !probe.Ready() {
			httpx.WriteError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Armazenamento ainda não está pronto")
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}
}
