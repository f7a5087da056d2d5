package product

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"gopedidos/internal/api/httpx"
	"gopedidos/internal/domain"
	"gopedidos/internal/pkg/logger"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id string, p domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// ProductRequest é o payload de criação e edição de produto.
// Active nil mantém o produto ativo.
type ProductRequest struct {
	SKU    string           `json:"sku" validate:"required,max=64"`
	Name   string           `json:"name" validate:"required,max=200"`
	Unit   string           `json:"unit" validate:"required,max=16"`
	Weight *decimal.Decimal `json:"weight,omitempty"`
	Price  decimal.Decimal  `json:"price"`
	Active *bool            `json:"active,omitempty"`
}

func (req ProductRequest) toDomain() domain.Product {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return domain.Product{SKU: req.SKU, Name: req.Name, Unit: req.Unit, Weight: req.Weight, Price: req.Price, Active: active}
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
	resp    httpx.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, resp: httpx.Responder{Logger: log}}
}

// Routes monta as rotas de /v1/products.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.CreateProductHandler)
	r.Get("/", h.ListProductsHandler)
	r.Get("/{id}", h.GetProductByIDHandler)
	r.Put("/{id}", h.UpdateProductHandler)
	r.Delete("/{id}", h.DeleteProductHandler)
}

// CreateProductHandler lida com a requisição POST /v1/products.
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusCreated)
		return
	}
	created, err := h.Service.CreateProduct(r.Context(), req.toDomain())
	h.resp.Respond(w, r, created, err, http.StatusCreated)
}

// ListProductsHandler lida com a requisição GET /v1/products?q=&active=.
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	activeOnly, _ := strconv.ParseBool(q.Get("active"))
	products, err := h.Service.ListProducts(r.Context(), domain.ProductFilter{Search: q.Get("q"), ActiveOnly: activeOnly})
	h.resp.Respond(w, r, products, err, http.StatusOK)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	h.resp.Respond(w, r, p, err, http.StatusOK)
}

// UpdateProductHandler lida com a requisição PUT /v1/products/{id}.
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := httpx.DecodeJSONBody(r, &req); err != nil {
		h.resp.Respond(w, r, nil, err, http.StatusOK)
		return
	}
	updated, err := h.Service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.toDomain())
	h.resp.Respond(w, r, updated, err, http.StatusOK)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteProduct(r.Context(), chi.URLParam(r, "id"))
	h.resp.Respond(w, r, nil, err, http.StatusNoContent)
}
