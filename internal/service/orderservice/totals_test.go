package orderservice_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/service/orderservice"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeItemTotal_ExactDecimal(t *testing.T) {
	total, err := orderservice.ComputeItemTotal(3, dec("19.90"))

	require.NoError(t, err)
	assert.True(t, total.Equal(dec("59.70")), "got %s", total)
}

func TestComputeItemTotal_Fail_Negative(t *testing.T) {
	_, err := orderservice.ComputeItemTotal(-1, dec("1"))
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = orderservice.ComputeItemTotal(1, dec("-0.01"))
	assert.ErrorAs(t, err, &validationErr)
}

func TestComputeOrderTotals_Success(t *testing.T) {
	items := []domain.OrderItem{
		{ProductID: "a", Qty: 3, UnitPrice: dec("19.90")},
		{ProductID: "b", Qty: 2, UnitPrice: dec("0.10")},
	}

	totals, err := orderservice.ComputeOrderTotals(items, dec("5"), dec("12.50"))

	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("59.90")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Total.Equal(dec("67.40")), "total %s", totals.Total)
}

func TestComputeOrderTotals_IgnoresStoredItemTotal(t *testing.T) {
	items := []domain.OrderItem{{ProductID: "a", Qty: 2, UnitPrice: dec("10"), Total: dec("999")}}

	totals, err := orderservice.ComputeOrderTotals(items, decimal.Zero, decimal.Zero)

	require.NoError(t, err)
	assert.True(t, totals.Subtotal.Equal(dec("20")))
}

func TestComputeOrderTotals_EmptyItems(t *testing.T) {
	totals, err := orderservice.ComputeOrderTotals(nil, decimal.Zero, dec("8"))

	require.NoError(t, err)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Total.Equal(dec("8")))
}

func TestComputeOrderTotals_Fail_DiscountExceedsTotal(t *testing.T) {
	items := []domain.OrderItem{{ProductID: "a", Qty: 1, UnitPrice: dec("10")}}

	_, err := orderservice.ComputeOrderTotals(items, dec("15"), dec("2"))

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestComputeOrderTotals_Fail_NegativeAdjustments(t *testing.T) {
	var validationErr *apperror.ValidationError

	_, err := orderservice.ComputeOrderTotals(nil, dec("-1"), decimal.Zero)
	assert.ErrorAs(t, err, &validationErr)

	_, err = orderservice.ComputeOrderTotals(nil, decimal.Zero, dec("-1"))
	assert.ErrorAs(t, err, &validationErr)
}

func TestRetotal_OverwritesItemTotals(t *testing.T) {
	order := domain.Order{Items: []domain.OrderItem{
		{ProductID: "a", Qty: 4, UnitPrice: dec("2.5"), Total: dec("1")},
	}}

	require.NoError(t, orderservice.Retotal(&order, dec("1"), decimal.Zero))

	assert.True(t, order.Items[0].Total.Equal(dec("10")))
	assert.True(t, order.Totals.Total.Equal(dec("9")))
}

func TestRetotal_Fail_LeavesOrderUntouched(t *testing.T) {
	order := domain.Order{
		Items:  []domain.OrderItem{{ProductID: "a", Qty: 1, UnitPrice: dec("5"), Total: dec("5")}},
		Totals: domain.OrderTotals{Subtotal: dec("5"), Total: dec("5")},
	}

	err := orderservice.Retotal(&order, dec("50"), decimal.Zero)

	assert.Error(t, err)
	assert.True(t, order.Totals.Total.Equal(dec("5")))
}
