package customerservice

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
)

// CustomerRepository define o contrato que o Serviço de Clientes espera da camada de Persistência.
type CustomerRepository interface {
	Create(ctx context.Context, customer domain.Customer) (domain.Customer, error)
	FindByID(ctx context.Context, id string) (domain.Customer, error)
	FindAll(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error)
	Update(ctx context.Context, customer domain.Customer) (domain.Customer, error)
	Delete(ctx context.Context, id string) error
}

var emailValidator = validator.New()

// Service implementa o cadastro de clientes.
type Service struct {
	repo   CustomerRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Clientes.
func NewService(repo CustomerRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateCustomer valida e grava um novo cliente.
func (s *Service) CreateCustomer(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	customer = normalize(customer)
	if err := validate(customer); err != nil {
		return domain.Customer{}, err
	}
	customer.ID = ""

	created, err := s.repo.Create(ctx, customer)
	if err != nil {
		s.logger.Error("Falha ao criar cliente no repositório.", err)
		return domain.Customer{}, propagate(err, "Falha ao criar cliente.")
	}

	s.logger.Info("Cliente criado.", map[string]interface{}{"customer_id": created.ID})
	return created, nil
}

// GetCustomer busca um cliente pelo ID.
func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Customer{}, propagate(err, "Falha ao buscar cliente.")
	}
	return customer, nil
}

// ListCustomers lista os clientes ordenados por nome, opcionalmente filtrando por texto livre.
func (s *Service) ListCustomers(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	customers, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, propagate(err, "Falha ao listar clientes.")
	}
	return customers, nil
}

// UpdateCustomer substitui os dados cadastrais. Pedidos existentes mantêm seus snapshots.
func (s *Service) UpdateCustomer(ctx context.Context, id string, customer domain.Customer) (domain.Customer, error) {
	customer = normalize(customer)
	customer.ID = id
	if err := validate(customer); err != nil {
		return domain.Customer{}, err
	}

	updated, err := s.repo.Update(ctx, customer)
	if err != nil {
		return domain.Customer{}, propagate(err, "Falha ao atualizar cliente.")
	}

	s.logger.Info("Cliente atualizado.", map[string]interface{}{"customer_id": id})
	return updated, nil
}

// DeleteCustomer remove o cliente do cadastro.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return propagate(err, "Falha ao excluir cliente.")
	}
	s.logger.Info("Cliente excluído.", map[string]interface{}{"customer_id": id})
	return nil
}

func normalize(c domain.Customer) domain.Customer {
	c.Name = strings.TrimSpace(c.Name)
	c.Doc = strings.TrimSpace(c.Doc)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Address = strings.TrimSpace(c.Address)
	return c
}

func validate(c domain.Customer) error {
	if c.Name == "" || c.Phone == "" {
		return apperror.NewValidationError("Nome e telefone são obrigatórios para o cliente.")
	}
	if c.Email != "" {
		if err := emailValidator.Var(c.Email, "email"); err != nil {
			return apperror.NewValidationError("E-mail do cliente inválido.")
		}
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
