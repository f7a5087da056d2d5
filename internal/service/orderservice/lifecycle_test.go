package orderservice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/service/orderservice"
)

func orderWith(status domain.OrderStatus, items int) domain.Order {
	o := domain.Order{Status: status}
	for i := 0; i < items; i++ {
		o.Items = append(o.Items, domain.OrderItem{ProductID: string(rune('a' + i)), Qty: 1})
	}
	return o
}

func TestLifecycle_Check_ForwardTransitions(t *testing.T) {
	l := orderservice.Lifecycle{}

	assert.NoError(t, l.Check(orderWith(domain.StatusQuote, 1), domain.StatusOrder))
	assert.NoError(t, l.Check(orderWith(domain.StatusOrder, 1), domain.StatusInvoiced))
}

func TestLifecycle_Check_Fail_InvalidTransitions(t *testing.T) {
	l := orderservice.Lifecycle{}
	var validationErr *apperror.ValidationError

	cases := []struct {
		from, to domain.OrderStatus
	}{
		{domain.StatusQuote, domain.StatusInvoiced},
		{domain.StatusInvoiced, domain.StatusOrder},
		{domain.StatusInvoiced, domain.StatusQuote},
		{domain.StatusOrder, domain.StatusQuote},
		{domain.StatusQuote, domain.StatusQuote},
		{domain.StatusQuote, domain.OrderStatus("cancelado")},
	}
	for _, tc := range cases {
		err := l.Check(orderWith(tc.from, 1), tc.to)
		assert.ErrorAs(t, err, &validationErr, "%s → %s", tc.from, tc.to)
	}
}

func TestLifecycle_Check_Fail_EmptyQuoteCannotBecomeOrder(t *testing.T) {
	err := orderservice.Lifecycle{}.Check(orderWith(domain.StatusQuote, 0), domain.StatusOrder)

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLifecycle_Check_ReopenWhenAllowed(t *testing.T) {
	l := orderservice.Lifecycle{AllowReopen: true}

	assert.NoError(t, l.Check(orderWith(domain.StatusOrder, 1), domain.StatusQuote))
	assert.Error(t, l.Check(orderWith(domain.StatusInvoiced, 1), domain.StatusQuote))
}
