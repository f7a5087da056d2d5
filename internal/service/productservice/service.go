package productservice

import (
	"context"
	"errors"
	"strings"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
)

// ProductRepository define o contrato (interface) que este Serviço espera
// da camada de Persistência (DB, Cache).
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// Service é a estrutura que implementa o catálogo de produtos.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateProduct valida e grava um novo produto. Produtos novos nascem ativos.
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	product = normalize(product)
	if err := validate(product); err != nil {
		return domain.Product{}, err
	}
	product.ID = ""
	product.Active = true

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao salvar produto no repositório.", err)
		return domain.Product{}, propagate(err, "Falha ao salvar produto.")
	}

	s.logger.Info("Produto criado.", map[string]interface{}{
		"product_id": created.ID,
		"sku":        created.SKU,
	})
	return created, nil
}

// GetProduct busca um produto pelo ID.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, propagate(err, "Falha ao buscar produto.")
	}
	return product, nil
}

// ListProducts lista os produtos por nome; Search casa SKU ou nome.
func (s *Service) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	products, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, propagate(err, "Falha ao listar produtos.")
	}
	return products, nil
}

// UpdateProduct substitui os dados do produto. Itens de pedidos existentes mantêm seus snapshots.
func (s *Service) UpdateProduct(ctx context.Context, id string, product domain.Product) (domain.Product, error) {
	product = normalize(product)
	product.ID = id
	if err := validate(product); err != nil {
		return domain.Product{}, err
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return domain.Product{}, propagate(err, "Falha ao atualizar produto.")
	}

	s.logger.Info("Produto atualizado.", map[string]interface{}{
		"product_id": id,
		"active":     updated.Active,
	})
	return updated, nil
}

// DeleteProduct remove o produto do catálogo.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return propagate(err, "Falha ao excluir produto.")
	}
	s.logger.Info("Produto excluído.", map[string]interface{}{"product_id": id})
	return nil
}

func normalize(p domain.Product) domain.Product {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	p.Name = strings.TrimSpace(p.Name)
	p.Unit = strings.TrimSpace(p.Unit)
	return p
}

func validate(p domain.Product) error {
	if p.SKU == "" || p.Name == "" || p.Unit == "" {
		return apperror.NewValidationError("SKU, nome e unidade são obrigatórios para o produto.")
	}
	if p.Price.IsNegative() {
		return apperror.NewValidationError("O preço do produto não pode ser negativo.")
	}
	if p.Weight != nil && p.Weight.IsNegative() {
		return apperror.NewValidationError("O peso do produto não pode ser negativo.")
	}
	return nil
}

func propagate(err error, msg string) error {
	var appErr apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternalError(msg, err)
}
