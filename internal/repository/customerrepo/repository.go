package customerrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gopedidos/internal/domain"
	"gopedidos/internal/errors"
	"gopedidos/internal/pkg/cache"
	"gopedidos/internal/pkg/logger"
)

// Define a chave de cache para clientes.
const customerCacheKey = "customer:%s"

// CustomerRepository implementa o cadastro de clientes no PostgreSQL com cache-aside no Redis.
type CustomerRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewCustomerRepository cria e retorna uma nova instância do Repositório de Clientes.
func NewCustomerRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *CustomerRepository {
	return &CustomerRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

const customerColumns = `id, name, doc, phone, email, address, created_at, updated_at`

// Create insere um novo cliente.
func (r *CustomerRepository) Create(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	query := `
        INSERT INTO customers (id, name, doc, phone, email, address, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
        RETURNING ` + customerColumns

	created, err := scanCustomer(r.DB.QueryRowContext(ctxTimeout, query,
		customer.ID, customer.Name, customer.Doc, customer.Phone, customer.Email, customer.Address, now,
	))
	if err != nil {
		r.logger.Error("Falha ao inserir cliente no DB.", err)
		return domain.Customer{}, errors.NewDBError("Falha ao criar cliente", err)
	}

	r.logger.Debug("Cliente inserido.", map[string]interface{}{"id": created.ID})
	return created, nil
}

// FindByID busca um cliente pelo ID, utilizando a estratégia Cache-Aside.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (domain.Customer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(customerCacheKey, id)
	var customer domain.Customer
	if cache.GetJSON(ctxTimeout, r.Cache, key, &customer) {
		return customer, nil
	}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	customer, err := scanCustomer(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Customer{}, errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar cliente no DB.", err)
		return domain.Customer{}, errors.NewDBError("Falha ao buscar cliente", err)
	}

	cache.SetJSON(ctxTimeout, r.Cache, key, customer, r.CacheTTL)
	return customer, nil
}

// FindAll lista os clientes por nome. Search casa nome e e-mail sem diferenciar maiúsculas
// e telefone e documento por substring.
func (r *CustomerRepository) FindAll(ctx context.Context, filter domain.CustomerFilter) ([]domain.Customer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + customerColumns + ` FROM customers`
	var args []interface{}
	if term := strings.TrimSpace(filter.Search); term != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1 OR phone LIKE $1 OR doc LIKE $1`
		args = append(args, "%"+escapeLike(term)+"%")
	}
	query += ` ORDER BY lower(name)`

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar clientes.", err)
		return nil, errors.NewDBError("Falha ao listar clientes", err)
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler cliente", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar clientes", err)
	}
	return customers, nil
}

// Update substitui os dados do cliente e invalida o cache.
func (r *CustomerRepository) Update(ctx context.Context, customer domain.Customer) (domain.Customer, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE customers
        SET name = $2, doc = $3, phone = $4, email = $5, address = $6, updated_at = $7
        WHERE id = $1
        RETURNING ` + customerColumns

	updated, err := scanCustomer(r.DB.QueryRowContext(ctxTimeout, query,
		customer.ID, customer.Name, customer.Doc, customer.Phone, customer.Email, customer.Address, time.Now().UTC(),
	))
	if err == sql.ErrNoRows {
		return domain.Customer{}, errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não encontrado.", customer.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar cliente no DB.", err)
		return domain.Customer{}, errors.NewDBError("Falha ao atualizar cliente", err)
	}

	cache.Invalidate(ctxTimeout, r.Cache, fmt.Sprintf(customerCacheKey, customer.ID))
	return updated, nil
}

// Delete remove o cliente e invalida o cache.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao excluir cliente no DB.", err)
		return errors.NewDBError("Falha ao excluir cliente", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Cliente com ID %s não encontrado.", id))
	}

	cache.Invalidate(ctxTimeout, r.Cache, fmt.Sprintf(customerCacheKey, id))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Doc, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
