package memrepo

import (
	"context"
	"sort"
	"strings"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
)

type productRecord struct {
	product domain.Product
}

func (r productRecord) copy() domain.Product {
	p := r.product
	if p.Weight != nil {
		w := *p.Weight
		p.Weight = &w
	}
	return p
}

// ProductRepository é o catálogo em memória. O SKU é único.
type ProductRepository struct {
	store *Store
}

func (r *ProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.skuTaken(product.SKU, "") {
		return domain.Product{}, apperror.NewConflictError("Já existe um produto com o SKU " + product.SKU + ".")
	}
	if product.ID == "" {
		product.ID = r.store.newID()
	}
	now := r.store.now()
	product.CreatedAt = now
	product.UpdatedAt = now
	rec := productRecord{product: product}
	rec.product = rec.copy()
	r.store.products[product.ID] = rec
	return rec.copy(), nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rec, ok := r.store.products[id]
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError("Produto não encontrado.")
	}
	return rec.copy(), nil
}

func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]domain.Product, 0, len(r.store.products))
	for _, rec := range r.store.products {
		p := rec.product
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if term != "" && !containsAny(term, p.Name, p.SKU) {
			continue
		}
		out = append(out, rec.copy())
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	return out, nil
}

func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	rec, ok := r.store.products[product.ID]
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError("Produto não encontrado.")
	}
	if r.skuTaken(product.SKU, product.ID) {
		return domain.Product{}, apperror.NewConflictError("Já existe um produto com o SKU " + product.SKU + ".")
	}
	product.CreatedAt = rec.product.CreatedAt
	product.UpdatedAt = r.store.now()
	updated := productRecord{product: product}
	updated.product = updated.copy()
	r.store.products[product.ID] = updated
	return updated.copy(), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.products[id]; !ok {
		return apperror.NewNotFoundError("Produto não encontrado.")
	}
	delete(r.store.products, id)
	return nil
}

// skuTaken deve ser chamado com o lock de escrita adquirido.
func (r *ProductRepository) skuTaken(sku, exceptID string) bool {
	for id, rec := range r.store.products {
		if id != exceptID && strings.EqualFold(rec.product.SKU, sku) {
			return true
		}
	}
	return false
}
