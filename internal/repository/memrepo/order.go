package memrepo

import (
	"context"
	"sort"
	"strings"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
)

type orderRecord struct {
	order domain.Order
}

// OrderRepository guarda os pedidos em memória. Pedidos excluídos ficam no mapa com DeletedAt.
type OrderRepository struct {
	store *Store
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, rec := range r.store.orders {
		if rec.order.OrderNumber == order.OrderNumber {
			return domain.Order{}, apperror.NewConflictError("Número de pedido já utilizado: " + order.OrderNumber)
		}
	}
	if order.ID == "" {
		order.ID = r.store.newID()
	}
	now := r.store.now()
	order.CreatedAt = now
	order.UpdatedAt = now
	order.DeletedAt = nil
	r.store.orders[order.ID] = orderRecord{order: order.Clone()}
	return order.Clone(), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.live(id)
	if !ok {
		return domain.Order{}, apperror.NewNotFoundError("Pedido não encontrado.")
	}
	return rec.order.Clone(), nil
}

func (r *OrderRepository) FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.Order, 0)
	for _, rec := range r.store.orders {
		o := rec.order
		if o.DeletedAt != nil {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		if term != "" && !containsAny(term, o.OrderNumber, o.CustomerSnapshot.Name) {
			continue
		}
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// UpdateContents grava itens, totais e observações. Número, status, cliente e criação não mudam.
func (r *OrderRepository) UpdateContents(ctx context.Context, order domain.Order) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.live(order.ID)
	if !ok {
		return domain.Order{}, apperror.NewNotFoundError("Pedido não encontrado.")
	}
	stored := rec.order.Clone()
	updated := order.Clone()
	stored.Items = updated.Items
	stored.Totals = updated.Totals
	stored.Notes = updated.Notes
	stored.UpdatedAt = r.store.now()
	r.store.orders[order.ID] = orderRecord{order: stored}
	return stored.Clone(), nil
}

// UpdateStatus troca o status somente se o status atual ainda for from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.live(id)
	if !ok {
		return domain.Order{}, apperror.NewNotFoundError("Pedido não encontrado.")
	}
	if rec.order.Status != from {
		return domain.Order{}, apperror.NewConflictError("O status do pedido foi alterado por outra operação.")
	}
	stored := rec.order.Clone()
	stored.Status = to
	stored.UpdatedAt = r.store.now()
	r.store.orders[id] = orderRecord{order: stored}
	return stored.Clone(), nil
}

func (r *OrderRepository) MarkDeleted(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.live(id)
	if !ok {
		return apperror.NewNotFoundError("Pedido não encontrado.")
	}
	stored := rec.order.Clone()
	now := r.store.now()
	stored.DeletedAt = &now
	stored.UpdatedAt = now
	r.store.orders[id] = orderRecord{order: stored}
	return nil
}

func (r *OrderRepository) live(id string) (orderRecord, bool) {
	rec, ok := r.store.orders[id]
	if !ok || rec.order.DeletedAt != nil {
		return orderRecord{}, false
	}
	return rec, true
}
