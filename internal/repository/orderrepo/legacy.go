package orderrepo

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"gopedidos/internal/domain"
)

// legacyStatuses mapeia os status gravados por clientes antigos.
var legacyStatuses = map[string]domain.OrderStatus{
	"orcamento": domain.StatusQuote,
	"orçamento": domain.StatusQuote,
	"draft":     domain.StatusQuote,
	"pedido":    domain.StatusOrder,
	"faturado":  domain.StatusInvoiced,
}

// legacyDeletedStatus é como clientes antigos marcavam a exclusão lógica.
const legacyDeletedStatus = "deleted"

// NormalizeStatus converte um status armazenado para o canônico.
// legacy indica que o valor precisou de conversão; status vazio ou desconhecido vira orçamento.
// deleted indica um pedido excluído no formato antigo; o status anterior se perdeu e vira orçamento.
func NormalizeStatus(raw string) (status domain.OrderStatus, legacy, deleted bool) {
	s := domain.OrderStatus(strings.TrimSpace(raw))
	if s.Valid() {
		return s, s != domain.OrderStatus(raw), false
	}
	key := strings.ToLower(string(s))
	if key == legacyDeletedStatus {
		return domain.StatusQuote, true, true
	}
	if mapped, ok := legacyStatuses[key]; ok {
		return mapped, true, false
	}
	return domain.StatusQuote, true, false
}

// storedItem aceita tanto o formato canônico quanto os formatos antigos de item.
type storedItem struct {
	ProductID      string                  `json:"product_id"`
	ProductIDCamel string                  `json:"productId"`
	Snapshot       *domain.ProductSnapshot `json:"product_snapshot"`
	SnapshotCamel  *domain.ProductSnapshot `json:"productSnapshot"`
	Qty            *decimal.Decimal        `json:"qty"`
	Quantity       *decimal.Decimal        `json:"quantity"`
	UnitPrice      *decimal.Decimal        `json:"unit_price"`
	UnitPriceCamel *decimal.Decimal        `json:"unitPrice"`
	Price          *decimal.Decimal        `json:"price"`
	SKU            string                  `json:"sku"`
	Name           string                  `json:"name"`
	Unit           string                  `json:"unit"`
}

// NormalizeItems decodifica a coluna items e converte formatos antigos para OrderItem.
// O total de cada item é sempre recalculado a partir de quantidade e preço.
func NormalizeItems(raw []byte) (items []domain.OrderItem, legacy bool, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []domain.OrderItem{}, len(raw) != 0, nil
	}

	var stored []storedItem
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, false, err
	}

	items = make([]domain.OrderItem, 0, len(stored))
	for _, s := range stored {
		item, wasLegacy := s.normalize()
		legacy = legacy || wasLegacy
		items = append(items, item)
	}
	return items, legacy, nil
}

func (s storedItem) normalize() (domain.OrderItem, bool) {
	legacy := false
	item := domain.OrderItem{ProductID: s.ProductID}
	if item.ProductID == "" {
		item.ProductID = s.ProductIDCamel
		legacy = true
	}

	switch {
	case s.Snapshot != nil:
		item.ProductSnapshot = *s.Snapshot
	case s.SnapshotCamel != nil:
		item.ProductSnapshot = *s.SnapshotCamel
		legacy = true
	default:
		item.ProductSnapshot = domain.ProductSnapshot{SKU: s.SKU, Name: s.Name, Unit: s.Unit}
		legacy = true
	}

	switch {
	case s.Qty != nil:
		item.Qty = int(s.Qty.IntPart())
	case s.Quantity != nil:
		item.Qty = int(s.Quantity.IntPart())
		legacy = true
	default:
		legacy = true
	}

	switch {
	case s.UnitPrice != nil:
		item.UnitPrice = *s.UnitPrice
	case s.UnitPriceCamel != nil:
		item.UnitPrice = *s.UnitPriceCamel
		legacy = true
	case s.Price != nil:
		item.UnitPrice = *s.Price
		legacy = true
	default:
		legacy = true
	}

	item.Total = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty)))
	return item, legacy
}

// subtotalOf soma os totais já recalculados dos itens.
func subtotalOf(items []domain.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Total)
	}
	return sum
}

// normalizeCustomerSnapshot aceita o snapshot canônico; um snapshot ausente fica vazio
// e é tratado pela camada de apresentação.
func normalizeCustomerSnapshot(raw []byte) (domain.CustomerSnapshot, error) {
	var snap domain.CustomerSnapshot
	if len(raw) == 0 || string(raw) == "null" {
		return snap, nil
	}
	err := json.Unmarshal(raw, &snap)
	return snap, err
}
