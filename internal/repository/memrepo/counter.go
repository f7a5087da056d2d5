package memrepo

import (
	"context"

	"gopedidos/internal/domain"
)

type counterRecord struct {
	seq     int64
	version int64
}

// CounterRepository é o contador de sequência em memória com CAS por versão.
type CounterRepository struct {
	store *Store
}

// Get devolve o contador do escopo; escopo inexistente devolve versão 0.
func (r *CounterRepository) Get(ctx context.Context, scope string) (domain.Counter, error) {
	if err := ctx.Err(); err != nil {
		return domain.Counter{}, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec := r.store.counters[scope]
	return domain.Counter{Scope: scope, Seq: rec.seq, Version: rec.version}, nil
}

// CompareAndSwap grava next se a versão armazenada for expectedVersion.
func (r *CounterRepository) CompareAndSwap(ctx context.Context, scope string, expectedVersion int64, next domain.Counter) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.counters[scope].version != expectedVersion {
		return false, nil
	}
	r.store.counters[scope] = counterRecord{seq: next.Seq, version: next.Version}
	return true, nil
}
