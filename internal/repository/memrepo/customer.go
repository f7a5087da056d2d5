package memrepo

import (
	"context"
	"sort"
	"strings"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
)

type customerRecord struct {
	customer domain.Customer
}

// CustomerRepository é o cadastro de clientes em memória.
type CustomerRepository struct {
	store *Store
}

func (r *CustomerRepository) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if customer.ID == "" {
		customer.ID = r.store.newID()
	}
	if _, exists := r.store.customers[customer.ID]; exists {
		return domain.Customer{}, apperror.NewConflictError("Cliente com este ID já existe.")
	}
	now := r.store.now()
	customer.CreatedAt = now
	customer.UpdatedAt = now
	r.store.customers[customer.ID] = customerRecord{customer: customer}
	return customer, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.customers[id]
	if !ok {
		return domain.Customer{}, apperror.NewNotFoundError("Cliente não encontrado.")
	}
	return rec.customer, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.Customer, 0, len(r.store.customers))
	for _, rec := range r.store.customers {
		c := rec.customer
		if term != "" && !containsAny(term, c.Name, c.Doc, c.Phone, c.Email) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	if err := ctx.Err(); err != nil {
		return domain.Customer{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.customers[customer.ID]
	if !ok {
		return domain.Customer{}, apperror.NewNotFoundError("Cliente não encontrado.")
	}
	customer.CreatedAt = rec.customer.CreatedAt
	customer.UpdatedAt = r.store.now()
	r.store.customers[customer.ID] = customerRecord{customer: customer}
	return customer, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.customers[id]; !ok {
		return apperror.NewNotFoundError("Cliente não encontrado.")
	}
	delete(r.store.customers, id)
	return nil
}

func containsAny(term string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}
