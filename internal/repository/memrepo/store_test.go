package memrepo_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/repository/memrepo"
)

func TestCounterRepository_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	counters := memrepo.NewStore().Counters()

	c, err := counters.Get(ctx, "202610")
	require.NoError(t, err)
	assert.Equal(t, int64(0), c.Version)

	ok, err := counters.CompareAndSwap(ctx, "202610", 0, domain.Counter{Scope: "202610", Seq: 1, Version: 1})
	require.NoError(t, err)
	assert.True(t, ok)

	// Versão antiga perde a corrida
	ok, err = counters.CompareAndSwap(ctx, "202610", 0, domain.Counter{Scope: "202610", Seq: 1, Version: 1})
	require.NoError(t, err)
	assert.False(t, ok)

	c, err = counters.Get(ctx, "202610")
	require.NoError(t, err)
	assert.Equal(t, domain.Counter{Scope: "202610", Seq: 1, Version: 1}, c)
}

func TestOrderRepository_DeletedIsInvisible(t *testing.T) {
	ctx := context.Background()
	orders := memrepo.NewStore().Orders()

	created, err := orders.Create(ctx, domain.Order{OrderNumber: "SAG-202610-0001", Status: domain.StatusQuote})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	require.NoError(t, orders.MarkDeleted(ctx, created.ID))

	_, err = orders.FindByID(ctx, created.ID)
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)

	all, err := orders.FindAll(ctx, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	_, err = orders.UpdateStatus(ctx, created.ID, domain.StatusQuote, domain.StatusOrder)
	assert.ErrorAs(t, err, &nf)

	// O número continua reservado mesmo após a exclusão lógica
	_, err = orders.Create(ctx, domain.Order{OrderNumber: "SAG-202610-0001", Status: domain.StatusQuote})
	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestOrderRepository_UpdateStatus_Fail_StaleFrom(t *testing.T) {
	ctx := context.Background()
	orders := memrepo.NewStore().Orders()
	created, err := orders.Create(ctx, domain.Order{OrderNumber: "SAG-202610-0001", Status: domain.StatusOrder})
	require.NoError(t, err)

	_, err = orders.UpdateStatus(ctx, created.ID, domain.StatusQuote, domain.StatusOrder)

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestOrderRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	orders := memrepo.NewStore().Orders()
	w := decimal.RequireFromString("0.5")
	created, err := orders.Create(ctx, domain.Order{
		OrderNumber: "SAG-202610-0001",
		Status:      domain.StatusQuote,
		Items:       []domain.OrderItem{{ProductID: "p1", Qty: 1, ProductSnapshot: domain.ProductSnapshot{SKU: "A", Weight: &w}}},
	})
	require.NoError(t, err)

	created.Items[0].Qty = 99
	*created.Items[0].ProductSnapshot.Weight = decimal.NewFromInt(7)

	found, err := orders.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Items[0].Qty)
	assert.Equal(t, "0.5", found.Items[0].ProductSnapshot.Weight.String())
}

func TestProductRepository_Fail_DuplicateSKU(t *testing.T) {
	ctx := context.Background()
	products := memrepo.NewStore().Products()
	_, err := products.Create(ctx, domain.Product{SKU: "CAF-500", Name: "Café"})
	require.NoError(t, err)

	_, err = products.Create(ctx, domain.Product{SKU: "caf-500", Name: "Outro café"})

	var conflict *apperror.ConflictError
	assert.ErrorAs(t, err, &conflict)
}
