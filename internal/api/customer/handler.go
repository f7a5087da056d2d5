package customer

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"gopedidos/internal/api/httpx"
	"gopedidos/internal/domain"
	"gopedidos/internal/pkg/logger"
)

// CustomerService define o contrato que o Handler espera da camada de Serviço.
type CustomerService interface {
	CreateCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (domain.Customer, error)
	ListCustomers(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, customer domain.Customer) (domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

// CustomerRequest é o payload de criação e edição de cliente.
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Doc     string `json:"doc" validate:"max=32"`
	Phone   string `json:"phone" validate:"required,max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address" validate:"max=500"`
}

func (req CustomerRequest) toDomain() domain.Customer {
	return domain.Customer{Name: req.Name, Doc: req.Doc, Phone: req.Phone, Email: req.Email, Address: req.Address}
}

// Handler agrupa todos os métodos de Handler de clientes.
type Handler struct {
	Service CustomerService
	Logger  logger.Logger
	resp    httpx.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CustomerService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, resp: httpx.Responder{Logger: log}}
}

// Routes monta as rotas de /v1/customers.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateCustomerHandler)
	r.Get("/", h.ListCustomersHandler)
	r.Get("/{id}", h.GetCustomerHandler)
	r.Put("/{id}", h.UpdateCustomerHandler)
	r.Delete("/{id}", h.DeleteCustomerHandler)
}

// CreateCustomerHandler lida com a requisição POST /v1/customers.
func (h *Handler) CreateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusCreated)
		return
	}
	created, err := h.Service.CreateCustomer(r.Context(), req.toDomain())
	h.resp.Respond(w, r, created, err, http.StatusCreated)
}

// ListCustomersHandler lida com a requisição GET /v1/customers?q=.
func (h *Handler) ListCustomersHandler(w http.ResponseWriter, r *http.Request) {
	customers, err := h.Service.ListCustomers(r.Context(), domain.CustomerFilter{Search: r.URL.Query().Get("q")})
	h.resp.Respond(w, r, customers, err, http.StatusOK)
}

// GetCustomerHandler lida com a requisição GET /v1/customers/{id}.
func (h *Handler) GetCustomerHandler(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	h.resp.Respond(w, r, c, err, http.StatusOK)
}

// UpdateCustomerHandler lida com a requisição PUT /v1/customers/{id}.
func (h *Handler) UpdateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusOK)
		return
	}
	updated, err := h.Service.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), req.toDomain())
	h.resp.Respond(w, r, updated, err, http.StatusOK)
}

// DeleteCustomerHandler lida com a requisição DELETE /v1/customers/{id}.
func (h *Handler) DeleteCustomerHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteCustomer(r.Context(), chi.URLParam(r, "id"))
	h.resp.Respond(w, r, nil, err, http.StatusNoContent)
}
