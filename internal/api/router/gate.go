package router

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"gopedidos/internal/api/httpx"
)

// Bootstrapper é a inicialização do armazenamento vista pelo Gate.
type Bootstrapper interface {
	ReadinessProbe
	Wait(ctx context.Context) error
}

// Gate atende /ping e /readyz enquanto o armazenamento inicializa e segura as demais
// requisições em Wait por até maxWait. O roteador completo é instalado com Set.
type Gate struct {
	boot    Bootstrapper
	maxWait time.Duration
	next    atomic.Pointer[http.Handler]
}

// NewGate cria o Gate sem roteador instalado.
func NewGate(boot Bootstrapper, maxWait time.Duration) *Gate {
	return &Gate{boot: boot, maxWait: maxWait}
}

// Set instala o roteador completo. Deve ser chamado antes da inicialização concluir.
func (g *Gate) Set(h http.Handler) {
	g.next.Store(&h)
}

func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !g.boot.Ready() {
		switch r.URL.Path {
		case "/ping":
			PingHandler(w, r)
			return
		case "/readyz":
			readyHandler(g.boot)(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), g.maxWait)
		err := g.boot.Wait(ctx)
		cancel()
		if err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Armazenamento ainda não está pronto")
			return
		}
	}

	next := g.next.Load()
	if next == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Armazenamento ainda não está pronto")
		return
	}
	(*next).ServeHTTP(w, r)
}
