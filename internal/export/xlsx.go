// Package export gera a planilha compartilhável de um pedido.
package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"gopedidos/internal/domain"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName       = "Pedido"
)

var itemHeader = []string{"SKU", "Produto", "Un", "Qtd", "Preço Unit.", "Total"}

// KindLabel devolve o título do documento conforme o status.
func KindLabel(status domain.OrderStatus) string {
	switch status {
	case domain.StatusOrder:
		return "PEDIDO"
	case domain.StatusInvoiced:
		return "FATURADO"
	default:
		return "ORÇAMENTO"
	}
}

// XLSXExporter monta a planilha do pedido com excelize.
type XLSXExporter struct {
	CompanyName string
}

// NewXLSXExporter cria o exportador. companyName aparece na primeira linha, se informado.
func NewXLSXExporter(companyName string) *XLSXExporter {
	return &XLSXExporter{CompanyName: companyName}
}

// Export gera o arquivo XLSX a partir do pedido materializado.
func (e *XLSXExporter) Export(order domain.Order) (domain.ExportDocument, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return domain.ExportDocument{}, fmt.Errorf("renomear planilha: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return domain.ExportDocument{}, fmt.Errorf("criar estilo: %w", err)
	}

	w := &sheetWriter{f: f, sheet: sheetName}
	if e.CompanyName != "" {
		w.row(e.CompanyName)
	}
	w.row(KindLabel(order.Status), order.OrderNumber)
	w.row("Data", order.CreatedAt.Format("02/01/2006"))
	w.skip()

	c := order.CustomerSnapshot
	w.row("Cliente", c.Name)
	w.row("Documento", c.Doc)
	w.row("Telefone", c.Phone)
	w.row("E-mail", c.Email)
	w.row("Endereço", c.Address)
	w.skip()

	w.row(toRow(itemHeader)...)
	for _, item := range order.Items {
		r := w.row(item.ProductSnapshot.SKU, item.ProductSnapshot.Name, item.ProductSnapshot.Unit,
			item.Qty, amount(item.UnitPrice), amount(item.Total))
		w.style(r, 5, 6, money)
	}
	w.skip()

	for _, line := range []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal", order.Totals.Subtotal},
		{"Desconto", order.Totals.Discount},
		{"Frete", order.Totals.Freight},
		{"Total", order.Totals.Total},
	} {
		r := w.row(nil, nil, nil, nil, line.label, amount(line.value))
		w.style(r, 6, 6, money)
	}

	if order.Notes != "" {
		w.skip()
		w.row("Observações", order.Notes)
	}

	if w.err != nil {
		return domain.ExportDocument{}, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return domain.ExportDocument{}, fmt.Errorf("gerar xlsx: %w", err)
	}
	return domain.ExportDocument{
		FileName:    order.OrderNumber + ".xlsx",
		ContentType: ContentTypeXLSX,
		Body:        buf.Bytes(),
	}, nil
}

// sheetWriter escreve linha a linha e guarda o primeiro erro.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func (w *sheetWriter) row(values ...interface{}) int {
	w.next++
	for i, v := range values {
		if v == nil || w.err != nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, w.next)
		if err != nil {
			w.err = err
			return w.next
		}
		w.err = w.f.SetCellValue(w.sheet, cell, v)
	}
	return w.next
}

func (w *sheetWriter) skip() { w.next++ }

func (w *sheetWriter) style(row, fromCol, toCol, styleID int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(fromCol, row)
	to, _ := excelize.CoordinatesToCellName(toCol, row)
	w.err = w.f.SetCellStyle(w.sheet, from, to, styleID)
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func toRow(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
