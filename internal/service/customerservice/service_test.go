package customerservice_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
	"gopedidos/internal/service/customerservice"
)

// MockCustomerRepository é uma implementação mock da interface CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	args := m.Called(ctx, customer)
	return args.Get(0).(domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	args := m.Called(ctx, customer)
	return args.Get(0).(domain.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TestCreateCustomer_Success_Normalizes testa que os campos são normalizados antes de gravar.
func TestCreateCustomer_Success_Normalizes(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customerservice.NewService(mockRepo, logger.NewLogger("error"))
	ctx := context.Background()

	expected := domain.Customer{Name: "Padaria Central", Phone: "11 4000-1000", Email: "compras@padaria.com"}
	mockRepo.On("Create", ctx, expected).Return(domain.Customer{ID: uuid.New().String(), Name: expected.Name, Phone: expected.Phone, Email: expected.Email}, nil)

	result, err := svc.CreateCustomer(ctx, domain.Customer{Name: " Padaria Central ", Phone: "11 4000-1000", Email: "Compras@Padaria.com "})

	assert.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	mockRepo.AssertExpectations(t)
}

func TestCreateCustomer_Fail_MissingRequiredFields(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customerservice.NewService(mockRepo, logger.NewLogger("error"))

	_, err := svc.CreateCustomer(context.Background(), domain.Customer{Name: "Sem telefone"})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateCustomer_Fail_InvalidEmail(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customerservice.NewService(mockRepo, logger.NewLogger("error"))

	_, err := svc.CreateCustomer(context.Background(), domain.Customer{Name: "A", Phone: "1", Email: "não-é-email"})

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCreateCustomer_Fail_RepositoryError(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customerservice.NewService(mockRepo, logger.NewLogger("error"))

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("domain.Customer")).Return(domain.Customer{}, errors.New("disco cheio"))

	_, err := svc.CreateCustomer(context.Background(), domain.Customer{Name: "A", Phone: "1"})

	var internalErr *apperror.InternalError
	assert.ErrorAs(t, err, &internalErr)
}

func TestGetCustomer_Fail_NotFound(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customerservice.NewService(mockRepo, logger.NewLogger("error"))

	mockRepo.On("FindByID", mock.Anything, "x").Return(domain.Customer{}, apperror.NewNotFoundError("Cliente não encontrado."))

	_, err := svc.GetCustomer(context.Background(), "x")

	var notFoundErr *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestListCustomers_TrimsSearch(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customerservice.NewService(mockRepo, logger.NewLogger("error"))

	mockRepo.On("FindAll", mock.Anything, domain.CustomerFilter{Search: "padaria"}).Return([]domain.Customer{{ID: "1"}}, nil)

	result, err := svc.ListCustomers(context.Background(), domain.CustomerFilter{Search: "  padaria "})

	assert.NoError(t, err)
	assert.Len(t, result, 1)
	mockRepo.AssertExpectations(t)
}

func TestUpdateCustomer_Success_UsesPathID(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customerservice.NewService(mockRepo, logger.NewLogger("error"))

	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(c domain.Customer) bool { return c.ID == "c-1" && c.Name == "Novo" })).
		Return(domain.Customer{ID: "c-1", Name: "Novo", Phone: "2"}, nil)

	result, err := svc.UpdateCustomer(context.Background(), "c-1", domain.Customer{ID: "outro", Name: "Novo", Phone: "2"})

	assert.NoError(t, err)
	assert.Equal(t, "c-1", result.ID)
	mockRepo.AssertExpectations(t)
}

func TestDeleteCustomer_Success(t *testing.T) {
	mockRepo := new(MockCustomerRepository)
	svc := customerservice.NewService(mockRepo, logger.NewLogger("error"))

	mockRepo.On("Delete", mock.Anything, "c-1").Return(nil)

	assert.NoError(t, svc.DeleteCustomer(context.Background(), "c-1"))
	mockRepo.AssertExpectations(t)
}
