// Package memrepo implementa os repositórios em memória usados no modo offline
// (STORE_DRIVER=memory) e nos testes de ponta a ponta.
package memrepo

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store agrupa as coleções em memória. Todas as leituras e escritas devolvem cópias.
type Store struct {
	mu        sync.RWMutex
	customers map[string]customerRecord
	products  map[string]productRecord
	orders    map[string]orderRecord
	counters  map[string]counterRecord
	now       func() time.Time
	newID     func() string
}

// NewStore cria um Store vazio.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]customerRecord),
		products:  make(map[string]productRecord),
		orders:    make(map[string]orderRecord),
		counters:  make(map[string]counterRecord),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

// Customers devolve o repositório de clientes sobre este Store.
func (s *Store) Customers() *CustomerRepository { return &CustomerRepository{store: s} }

// Products devolve o repositório de produtos sobre este Store.
func (s *Store) Products() *ProductRepository { return &ProductRepository{store: s} }

// Orders devolve o repositório de pedidos sobre este Store.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{store: s} }

// Counters devolve o repositório de contadores de sequência sobre este Store.
func (s *Store) Counters() *CounterRepository { return &CounterRepository{store: s} }
