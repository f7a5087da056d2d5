package orderservice

import (
	"strings"

	"gopedidos/internal/domain"
)

// BuildCustomerSnapshot congela os dados do cliente no pedido.
func BuildCustomerSnapshot(c domain.Customer) domain.CustomerSnapshot {
	return domain.CustomerSnapshot{
		Name:    strings.TrimSpace(c.Name),
		Doc:     strings.TrimSpace(c.Doc),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
	}
}

// BuildProductSnapshot congela SKU, nome, unidade e peso do produto no item.
func BuildProductSnapshot(p domain.Product) domain.ProductSnapshot {
	snap := domain.ProductSnapshot{
		SKU:  strings.TrimSpace(p.SKU),
		Name: strings.TrimSpace(p.Name),
		Unit: strings.TrimSpace(p.Unit),
	}
	if p.Weight != nil {
		w := *p.Weight
		snap.Weight = &w
	}
	return snap
}
