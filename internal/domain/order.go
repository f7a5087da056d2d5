package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus é o estado do pedido no ciclo de vida orçamento → pedido → faturado.
type OrderStatus string

const (
	StatusQuote    OrderStatus = "quote"    // Orçamento (estado inicial)
	StatusOrder    OrderStatus = "order"    // Pedido confirmado
	StatusInvoiced OrderStatus = "invoiced" // Faturado (terminal)
)

// forwardTransitions são as únicas arestas sempre válidas do ciclo de vida.
var forwardTransitions = map[OrderStatus]OrderStatus{
	StatusQuote: StatusOrder,
	StatusOrder: StatusInvoiced,
}

// Valid reporta se o status é um dos três estados conhecidos.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusQuote, StatusOrder, StatusInvoiced:
		return true
	}
	return false
}

// Terminal reporta se nenhuma transição parte deste status.
func (s OrderStatus) Terminal() bool {
	return s == StatusInvoiced
}

// CanAdvanceTo reporta se target é o próximo estado de s.
func (s OrderStatus) CanAdvanceTo(target OrderStatus) bool {
	next, ok := forwardTransitions[s]
	return ok && next == target
}

// CustomerSnapshot é a cópia imutável dos dados do cliente no momento da criação do pedido.
type CustomerSnapshot struct {
	Name    string `json:"name"`
	Doc     string `json:"doc,omitempty"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// ProductSnapshot é a cópia imutável dos dados do produto no momento em que o item foi adicionado.
type ProductSnapshot struct {
	SKU    string           `json:"sku"`
	Name   string           `json:"name"`
	Unit   string           `json:"unit"`
	Weight *decimal.Decimal `json:"weight,omitempty"`
}

// OrderItem é uma linha do pedido. Total é sempre Qty * UnitPrice.
type OrderItem struct {
	ProductID       string          `json:"product_id"`
	ProductSnapshot ProductSnapshot `json:"product_snapshot"`
	Qty             int             `json:"qty"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Total           decimal.Decimal `json:"total"`
}

// OrderTotals é o agregado derivado dos itens e ajustes. Nunca é a fonte da verdade.
type OrderTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Freight  decimal.Decimal `json:"freight"`
	Total    decimal.Decimal `json:"total"`
}

// Order é o agregado central.
type Order struct {
	ID               string           `json:"id"`
	OrderNumber      string           `json:"order_number"`
	Status           OrderStatus      `json:"status"`
	CustomerID       string           `json:"customer_id"`
	CustomerSnapshot CustomerSnapshot `json:"customer_snapshot"`
	Items            []OrderItem      `json:"items"`
	Totals           OrderTotals      `json:"totals"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        *time.Time       `json:"deleted_at,omitempty"`
}

// ItemIndex devolve a posição do item do produto informado, ou -1.
func (o Order) ItemIndex(productID string) int {
	for i, item := range o.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone devolve uma cópia profunda do pedido (itens e ponteiros de peso).
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = make([]OrderItem, len(o.Items))
		for i, item := range o.Items {
			if item.ProductSnapshot.Weight != nil {
				w := *item.ProductSnapshot.Weight
				item.ProductSnapshot.Weight = &w
			}
			c.Items[i] = item
		}
	}
	if o.DeletedAt != nil {
		d := *o.DeletedAt
		c.DeletedAt = &d
	}
	return c
}

// OrderFilter define os parâmetros de listagem de pedidos.
type OrderFilter struct {
	Status     OrderStatus
	CustomerID string
	Search     string // Número do pedido ou nome do cliente (substring)
	Limit      int
}

// OrderItemRequest é um item solicitado na criação do pedido.
// UnitPrice nil usa o preço atual do produto.
type OrderItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Qty       int              `json:"qty" validate:"required,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateOrderRequest é o payload de criação de orçamento.
type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id" validate:"required"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Discount   decimal.Decimal    `json:"discount"`
	Freight    decimal.Decimal    `json:"freight"`
	Notes      string             `json:"notes" validate:"max=2000"`
}

// AdjustmentsRequest altera desconto e frete do pedido.
type AdjustmentsRequest struct {
	Discount decimal.Decimal `json:"discount"`
	Freight  decimal.Decimal `json:"freight"`
}

// ItemChange altera quantidade e/ou preço de um item. Campos nil não mudam.
type ItemChange struct {
	Qty       *int
	UnitPrice *decimal.Decimal
}

// OrderPatch altera observações e/ou ajustes do pedido. Campos nil não mudam.
type OrderPatch struct {
	Notes    *string
	Discount *decimal.Decimal
	Freight  *decimal.Decimal
}

// ExportDocument é o arquivo gerado para compartilhar um pedido.
type ExportDocument struct {
	FileName    string
	ContentType string
	Body        []byte
}
