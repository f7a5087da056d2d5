package orderservice

import (
	"fmt"

	"github.com/shopspring/decimal"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
)

// ComputeItemTotal devolve qty * unitPrice em aritmética decimal exata.
func ComputeItemTotal(qty int, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	if qty < 0 {
		return decimal.Zero, apperror.NewValidationError("A quantidade do item não pode ser negativa.")
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, apperror.NewValidationError("O preço unitário não pode ser negativo.")
	}
	return unitPrice.Mul(decimal.NewFromInt(int64(qty))), nil
}

// ComputeOrderTotals deriva subtotal e total a partir dos itens e ajustes.
// O total de cada item é recalculado de Qty e UnitPrice; Total armazenado é ignorado.
// Um total final negativo é rejeitado.
func ComputeOrderTotals(items []domain.OrderItem, discount, freight decimal.Decimal) (domain.OrderTotals, error) {
	if discount.IsNegative() {
		return domain.OrderTotals{}, apperror.NewValidationError("O desconto não pode ser negativo.")
	}
	if freight.IsNegative() {
		return domain.OrderTotals{}, apperror.NewValidationError("O frete não pode ser negativo.")
	}

	subtotal := decimal.Zero
	for i, item := range items {
		if item.Qty < 0 || item.UnitPrice.IsNegative() {
			return domain.OrderTotals{}, apperror.NewValidationError(
				fmt.Sprintf("Item %d: quantidade e preço unitário não podem ser negativos.", i+1))
		}
		total, _ := ComputeItemTotal(item.Qty, item.UnitPrice)
		subtotal = subtotal.Add(total)
	}

	total := subtotal.Sub(discount).Add(freight)
	if total.IsNegative() {
		return domain.OrderTotals{}, apperror.NewValidationError(
			fmt.Sprintf("O desconto (%s) excede subtotal + frete (%s).", discount.StringFixed(2), subtotal.Add(freight).StringFixed(2)))
	}

	return domain.OrderTotals{
		Subtotal: subtotal,
		Discount: discount,
		Freight:  freight,
		Total:    total,
	}, nil
}

// Retotal sobrescreve o total de cada item e os totais do pedido com os ajustes informados.
// O pedido só é alterado se o cálculo for válido.
func Retotal(order *domain.Order, discount, freight decimal.Decimal) error {
	totals, err := ComputeOrderTotals(order.Items, discount, freight)
	if err != nil {
		return err
	}
	for i := range order.Items {
		// Já validado por ComputeOrderTotals.
		order.Items[i].Total, _ = ComputeItemTotal(order.Items[i].Qty, order.Items[i].UnitPrice)
	}
	order.Totals = totals
	return nil
}
