package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gopedidos/internal/domain"
	"gopedidos/internal/export"
)

func sampleOrder(status domain.OrderStatus) domain.Order {
	return domain.Order{
		ID:          "o-1",
		OrderNumber: "SAG-202610-0007",
		Status:      status,
		CustomerSnapshot: domain.CustomerSnapshot{
			Name:  "Mercearia Boa Vista",
			Phone: "11 99999-0000",
		},
		Items: []domain.OrderItem{{
			ProductID:       "p-1",
			ProductSnapshot: domain.ProductSnapshot{SKU: "CAF-500", Name: "Café 500g", Unit: "un"},
			Qty:             3,
			UnitPrice:       decimal.RequireFromString("19.90"),
			Total:           decimal.RequireFromString("59.70"),
		}},
		Totals: domain.OrderTotals{
			Subtotal: decimal.RequireFromString("59.70"),
			Discount: decimal.Zero,
			Freight:  decimal.RequireFromString("10"),
			Total:    decimal.RequireFromString("69.70"),
		},
		Notes:     "Entregar pela manhã",
		CreatedAt: time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestKindLabel(t *testing.T) {
	assert.Equal(t, "ORÇAMENTO", export.KindLabel(domain.StatusQuote))
	assert.Equal(t, "PEDIDO", export.KindLabel(domain.StatusOrder))
	assert.Equal(t, "FATURADO", export.KindLabel(domain.StatusInvoiced))
}

func TestXLSXExporter_Export_Success(t *testing.T) {
	exp := export.NewXLSXExporter("")

	doc, err := exp.Export(sampleOrder(domain.StatusOrder))

	require.NoError(t, err)
	assert.Equal(t, "SAG-202610-0007.xlsx", doc.FileName)
	assert.Equal(t, export.ContentTypeXLSX, doc.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(doc.Body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Pedido"}, f.GetSheetList())

	kind, err := f.GetCellValue("Pedido", "A1")
	require.NoError(t, err)
	number, err := f.GetCellValue("Pedido", "B1")
	require.NoError(t, err)
	assert.Equal(t, "PEDIDO", kind)
	assert.Equal(t, "SAG-202610-0007", number)

	rows, err := f.GetRows("Pedido")
	require.NoError(t, err)

	var found bool
	for _, row := range rows {
		if len(row) >= 2 && row[0] == "CAF-500" {
			found = true
			assert.Equal(t, "Café 500g", row[1])
		}
	}
	assert.True(t, found, "linha do item não encontrada")
}

func TestXLSXExporter_Export_CompanyHeader(t *testing.T) {
	exp := export.NewXLSXExporter("Distribuidora Sagrado")

	doc, err := exp.Export(sampleOrder(domain.StatusQuote))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(doc.Body))
	require.NoError(t, err)
	defer f.Close()

	company, err := f.GetCellValue("Pedido", "A1")
	require.NoError(t, err)
	kind, err := f.GetCellValue("Pedido", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Distribuidora Sagrado", company)
	assert.Equal(t, "ORÇAMENTO", kind)
}
