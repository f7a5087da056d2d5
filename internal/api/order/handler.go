package order

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gopedidos/internal/api/httpx"
	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
)

// OrderService define o contrato que o Handler espera da camada de Serviço.
type OrderService interface {
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	AddItem(ctx context.Context, id string, in domain.OrderItemRequest) (domain.Order, error)
	UpdateItem(ctx context.Context, id, productID string, change domain.ItemChange) (domain.Order, error)
	DeleteOrderItem(ctx context.Context, id, productID string) (domain.Order, error)
	PatchOrder(ctx context.Context, id string, patch domain.OrderPatch) (domain.Order, error)
	TransitionStatus(ctx context.Context, id string, target domain.OrderStatus) (domain.Order, error)
	DuplicateOrder(ctx context.Context, id string) (domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	ExportOrder(ctx context.Context, id string) (domain.ExportDocument, error)
}

// PatchOrderRequest altera observações e/ou ajustes. Campos ausentes não mudam.
type PatchOrderRequest struct {
	Notes    *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Freight  *decimal.Decimal `json:"freight,omitempty"`
}

// UpdateItemRequest altera quantidade e/ou preço unitário de um item.
type UpdateItemRequest struct {
	Qty       *int             `json:"qty,omitempty" validate:"omitempty,min=1"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// TransitionRequest pede a mudança de status do pedido.
type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=quote order invoiced"`
}

// Handler agrupa os métodos de Handler de pedidos.
type Handler struct {
	Service OrderService
	Logger  logger.Logger
	resp    httpx.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, resp: httpx.Responder{Logger: log}}
}

// Routes monta as rotas de /v1/orders.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateOrderHandler)
	r.Get("/", h.ListOrdersHandler)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetOrderHandler)
		r.Patch("/", h.PatchOrderHandler)
		r.Delete("/", h.DeleteOrderHandler)
		r.Post("/items", h.AddItemHandler)
		r.Put("/items/{productID}", h.UpdateItemHandler)
		r.Delete("/items/{productID}", h.DeleteItemHandler)
		r.Post("/transitions", h.TransitionHandler)
		r.Post("/duplicate", h.DuplicateHandler)
		r.Get("/export", h.ExportHandler)
	})
}

// CreateOrderHandler lida com a requisição POST /v1/orders.
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusCreated)
		return
	}
	created, err := h.Service.CreateOrder(r.Context(), req)
	h.resp.Respond(w, r, created, err, http.StatusCreated)
}

// ListOrdersHandler lida com a requisição GET /v1/orders?status=&customer_id=&q=&limit=.
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.OrderFilter{
		Status:     domain.OrderStatus(q.Get("status")),
		CustomerID: q.Get("customer_id"),
		Search:     q.Get("q"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.resp.Respond(w, r, nil, apperror.NewValidationError("limit deve ser um inteiro não negativo"), http.StatusOK)
			return
		}
		filter.Limit = limit
	}
	orders, err := h.Service.ListOrders(r.Context(), filter)
	h.resp.Respond(w, r, orders, err, http.StatusOK)
}

// GetOrderHandler lida com a requisição GET /v1/orders/{id}.
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	h.resp.Respond(w, r, o, err, http.StatusOK)
}

// PatchOrderHandler lida com a requisição PATCH /v1/orders/{id}.
func (h *Handler) PatchOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req PatchOrderRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusOK)
		return
	}
	o, err := h.Service.PatchOrder(r.Context(), chi.URLParam(r, "id"), domain.OrderPatch{
		Notes:    req.Notes,
		Discount: req.Discount,
		Freight:  req.Freight,
	})
	h.resp.Respond(w, r, o, err, http.StatusOK)
}

// DeleteOrderHandler lida com a requisição DELETE /v1/orders/{id}.
func (h *Handler) DeleteOrderHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteOrder(r.Context(), chi.URLParam(r, "id"))
	h.resp.Respond(w, r, nil, err, http.StatusNoContent)
}

// AddItemHandler lida com a requisição POST /v1/orders/{id}/items.
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderItemRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusOK)
		return
	}
	o, err := h.Service.AddItem(r.Context(), chi.URLParam(r, "id"), req)
	h.resp.Respond(w, r, o, err, http.StatusOK)
}

// UpdateItemHandler lida com a requisição PUT /v1/orders/{id}/items/{productID}.
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusOK)
		return
	}
	o, err := h.Service.UpdateItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"),
		domain.ItemChange{Qty: req.Qty, UnitPrice: req.UnitPrice})
	h.resp.Respond(w, r, o, err, http.StatusOK)
}

// DeleteItemHandler lida com a requisição DELETE /v1/orders/{id}/items/{productID}.
func (h *Handler) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.DeleteOrderItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "productID"))
	h.resp.Respond(w, r, o, err, http.StatusOK)
}

// TransitionHandler lida com a requisição POST /v1/orders/{id}/transitions.
func (h *Handler) TransitionHandler(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusOK)
		return
	}
	o, err := h.Service.TransitionStatus(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	h.resp.Respond(w, r, o, err, http.StatusOK)
}

// DuplicateHandler lida com a requisição POST /v1/orders/{id}/duplicate.
func (h *Handler) DuplicateHandler(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.DuplicateOrder(r.Context(), chi.URLParam(r, "id"))
	h.resp.Respond(w, r, o, err, http.StatusCreated)
}

// ExportHandler lida com a requisição GET /v1/orders/{id}/export e devolve a planilha.
func (h *Handler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.ExportOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Body); err != nil {
		h.Logger.Error("Falha ao escrever planilha exportada", err)
	}
}
