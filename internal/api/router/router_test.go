package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gopedidos/internal/api/customer"
	"gopedidos/internal/api/order"
	"gopedidos/internal/api/product"
	"gopedidos/internal/api/router"
	"gopedidos/internal/api/session"
	"gopedidos/internal/domain"
	"gopedidos/internal/export"
	"gopedidos/internal/pkg/cache"
	"gopedidos/internal/pkg/logger"
	"gopedidos/internal/pkg/metrics"
	"gopedidos/internal/pkg/token"
	"gopedidos/internal/repository/memrepo"
	"gopedidos/internal/service/customerservice"
	"gopedidos/internal/service/orderservice"
	"gopedidos/internal/service/productservice"
	"gopedidos/internal/service/sequenceservice"
)

type notReady struct{}

func (notReady) Ready() bool { return false }

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func newRouter(t *testing.T, probe router.ReadinessProbe, rateLimit int) http.Handler {
	t.Helper()
	log := logger.NewLogger("error")
	store := memrepo.NewStore()
	reg := prometheus.NewRegistry()
	m := metrics.NewOrderMetrics(reg)
	tokens := token.NewService("segredo", time.Hour)

	seq := sequenceservice.NewService(store.Counters(), sequenceservice.Options{Prefix: "SAG", Width: 4, MaxRetries: 3, RetryBackoff: time.Millisecond}, log, m)
	orders := orderservice.NewService(store.Orders(), store.Customers(), store.Products(), seq, export.NewXLSXExporter("Sagrado Comércio"), log, orderservice.WithMetrics(m))

	return router.NewRouter(router.Deps{
		Customers:  customer.NewHandler(customerservice.NewService(store.Customers(), log), log),
		Products:   product.NewHandler(productservice.NewService(store.Products(), log), log),
		Orders:     order.NewHandler(orders, log),
		Sessions:   session.NewHandler(tokens, log),
		Tokens:     tokens,
		Cache:      cache.NewMemoryClient(),
		Readiness:  probe,
		Gatherer:   reg,
		RateLimit:  rateLimit,
		RateWindow: time.Minute,
		Logger:     log,
	})
}

func openSession(t *testing.T, h http.Handler) *client {
	t.Helper()
	c := &client{t: t, h: h}
	w := c.do(http.MethodPost, "/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp session.Response
	decode(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.DeviceID)
	c.token = resp.Token
	return c
}

func TestRouter_HealthChecks(t *testing.T) {
	h := newRouter(t, nil, 100)
	c := &client{t: t, h: h}

	w := c.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/readyz", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/nada", nil).Code)
}

func TestRouter_Fail_NotReady(t *testing.T) {
	c := &client{t: t, h: newRouter(t, notReady{}, 100)}

	w := c.do(http.MethodGet, "/readyz", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_Fail_RequiresSession(t *testing.T) {
	c := &client{t: t, h: newRouter(t, nil, 100)}

	w := c.do(http.MethodGet, "/v1/orders", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_Fail_RateLimited(t *testing.T) {
	c := openSession(t, newRouter(t, nil, 2))

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/v1/customers", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/v1/customers", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, c.do(http.MethodGet, "/v1/customers", nil).Code)
}

func TestRouter_Fail_PayloadValidation(t *testing.T) {
	c := openSession(t, newRouter(t, nil, 100))

	w := c.do(http.MethodPost, "/v1/customers", map[string]interface{}{"name": "Sem telefone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "phone")

	w = c.do(http.MethodPost, "/v1/customers", map[string]interface{}{"name": "X", "phone": "1", "apelido": "?"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, "/v1/orders", map[string]interface{}{"customer_id": "c1", "items": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodGet, "/v1/orders?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_OrderFlow(t *testing.T) {
	c := openSession(t, newRouter(t, nil, 1000))

	// Cadastros
	w := c.do(http.MethodPost, "/v1/customers", map[string]interface{}{"name": "Mercearia Boa Vista", "phone": "11 99999-0000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cust domain.Customer
	decode(t, w, &cust)

	w = c.do(http.MethodPost, "/v1/products", map[string]interface{}{"sku": "caf-500", "name": "Café 500g", "unit": "un", "price": 19.90})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var prod domain.Product
	decode(t, w, &prod)
	assert.Equal(t, "CAF-500", prod.SKU)

	// Orçamento
	w = c.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"customer_id": cust.ID,
		"items":       []interface{}{map[string]interface{}{"product_id": prod.ID, "qty": 3}},
		"freight":     10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var o domain.Order
	decode(t, w, &o)
	assert.True(t, strings.HasPrefix(o.OrderNumber, "SAG-"))
	assert.True(t, strings.HasSuffix(o.OrderNumber, "-0001"))
	assert.Equal(t, domain.StatusQuote, o.Status)
	assert.Equal(t, "69.70", o.Totals.Total.StringFixed(2))

	base := "/v1/orders/" + o.ID

	w = c.do(http.MethodPatch, base, map[string]interface{}{"discount": 9.70, "notes": "Entregar cedo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &o)
	assert.Equal(t, "60.00", o.Totals.Total.StringFixed(2))
	assert.Equal(t, "10.00", o.Totals.Freight.StringFixed(2))
	assert.Equal(t, "Entregar cedo", o.Notes)

	w = c.do(http.MethodPut, base+"/items/"+prod.ID, map[string]interface{}{"qty": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &o)
	assert.Equal(t, "39.80", o.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "40.10", o.Totals.Total.StringFixed(2))

	w = c.do(http.MethodPut, base+"/items/desconhecido", map[string]interface{}{"qty": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Ciclo de vida
	w = c.do(http.MethodPost, base+"/transitions", map[string]interface{}{"status": "invoiced"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodPost, base+"/transitions", map[string]interface{}{"status": "order"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &o)
	assert.Equal(t, domain.StatusOrder, o.Status)

	w = c.do(http.MethodGet, "/v1/orders?status=order", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.Order
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, o.OrderNumber, list[0].OrderNumber)

	// Exportação
	w = c.do(http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), o.OrderNumber)
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	// Duplicação gera novo número e volta a orçamento
	w = c.do(http.MethodPost, base+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var dup domain.Order
	decode(t, w, &dup)
	assert.Equal(t, domain.StatusQuote, dup.Status)
	assert.True(t, strings.HasSuffix(dup.OrderNumber, "-0002"))
	assert.True(t, decimal.RequireFromString("40.10").Equal(dup.Totals.Total))

	// Exclusão lógica
	assert.Equal(t, http.StatusNoContent, c.do(http.MethodDelete, base, nil).Code)
	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, base, nil).Code)
}

func TestRouter_Fail_RejectedItemUpdateLeavesOrderUnchanged(t *testing.T) {
	c := openSession(t, newRouter(t, nil, 1000))

	w := c.do(http.MethodPost, "/v1/customers", map[string]interface{}{"name": "Jane", "phone": "5551234"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cust domain.Customer
	decode(t, w, &cust)

	w = c.do(http.MethodPost, "/v1/products", map[string]interface{}{"sku": "ABC", "name": "Produto ABC", "unit": "un", "price": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var prod domain.Product
	decode(t, w, &prod)

	w = c.do(http.MethodPost, "/v1/orders", map[string]interface{}{
		"customer_id": cust.ID,
		"items":       []interface{}{map[string]interface{}{"product_id": prod.ID, "qty": 2}},
		"freight":     5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var o domain.Order
	decode(t, w, &o)
	base := "/v1/orders/" + o.ID

	w = c.do(http.MethodPut, base+"/items/"+prod.ID, map[string]interface{}{"qty": 5, "unit_price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Desconto maior que subtotal + frete rejeita também as observações enviadas junto
	w = c.do(http.MethodPatch, base, map[string]interface{}{"notes": "não deve gravar", "discount": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = c.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Order
	decode(t, w, &got)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Qty)
	assert.Equal(t, "10.00", got.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "20.00", got.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "25.00", got.Totals.Total.StringFixed(2))
	assert.Empty(t, got.Notes)

	// Quantidade e preço válidos juntos numa única gravação
	w = c.do(http.MethodPut, base+"/items/"+prod.ID, map[string]interface{}{"qty": 5, "unit_price": 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &got)
	assert.Equal(t, "40.00", got.Totals.Subtotal.StringFixed(2))
	assert.Equal(t, "45.00", got.Totals.Total.StringFixed(2))
}
