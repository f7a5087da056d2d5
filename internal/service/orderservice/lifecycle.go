package orderservice

import (
	"fmt"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
)

// Lifecycle aplica as regras de transição de status.
// AllowReopen habilita a volta pedido → orçamento (desabilitada por padrão).
type Lifecycle struct {
	AllowReopen bool
}

// Check valida a transição do status atual do pedido para target.
func (l Lifecycle) Check(order domain.Order, target domain.OrderStatus) error {
	if !target.Valid() {
		return apperror.NewValidationError(fmt.Sprintf("Status desconhecido: %q.", target))
	}

	from := order.Status
	switch {
	case from.CanAdvanceTo(target):
		if from == domain.StatusQuote && len(order.Items) == 0 {
			return apperror.NewValidationError("Um orçamento sem itens não pode virar pedido.")
		}
		return nil
	case l.AllowReopen && from == domain.StatusOrder && target == domain.StatusQuote:
		return nil
	}

	return apperror.NewValidationError(fmt.Sprintf("Transição inválida: %s → %s.", from, target))
}
