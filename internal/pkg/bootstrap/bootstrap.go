// Package bootstrap modela a inicialização das conexões de armazenamento como
// um passo explícito: executa uma única vez por processo e expõe a prontidão
// como algo que pode ser aguardado.
package bootstrap

import (
	"context"
	"sync"
)

// Bootstrap executa a função de inicialização uma vez e guarda o resultado.
type Bootstrap struct {
	once sync.Once
	done chan struct{}
	err  error
}

// New cria um Bootstrap ainda não iniciado.
func New() *Bootstrap {
	return &Bootstrap{done: make(chan struct{})}
}

// Init executa fn na primeira chamada. Chamadas seguintes não executam nada
// e devolvem o mesmo erro da primeira.
func (b *Bootstrap) Init(ctx context.Context, fn func(context.Context) error) error {
	b.once.Do(func() {
		defer close(b.done)
		b.err = fn(ctx)
	})
	<-b.done
	return b.err
}

// Wait bloqueia até a inicialização terminar ou o contexto expirar.
func (b *Bootstrap) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return b.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reporta, sem bloquear, se a inicialização terminou com sucesso.
func (b *Bootstrap) Ready() bool {
	select {
	case <-b.done:
		return b.err == nil
	default:
		return false
	}
}
