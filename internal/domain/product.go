package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa o item do catálogo que pode ser vendido em um pedido.
// A unicidade do SKU é responsabilidade do repositório.
type Product struct {
	ID        string           `json:"id"`
	SKU       string           `json:"sku"`
	Name      string           `json:"name"`
	Unit      string           `json:"unit"`             // Ex: "un", "kg", "cx"
	Weight    *decimal.Decimal `json:"weight,omitempty"` // Peso opcional, em kg
	Price     decimal.Decimal  `json:"price"`
	Active    bool             `json:"active"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ProductFilter define os parâmetros de busca de produtos.
type ProductFilter struct {
	Search     string
	ActiveOnly bool
}
