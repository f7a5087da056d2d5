package productrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gopedidos/internal/domain"
	"gopedidos/internal/errors"
	"gopedidos/internal/pkg/cache"
	"gopedidos/internal/pkg/logger"
)

// Define a chave de cache para produtos.
const productCacheKey = "product:%s"

// ProductRepository implementa o catálogo no PostgreSQL com cache-aside no Redis.
// Ela contém as conexões necessárias para acessar dados.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    logger,
	}
}

const productColumns = `id, sku, name, unit, weight, price, active, created_at, updated_at`

// Create persiste um novo produto. SKU repetido vira ConflictError.
func (r *ProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}

	query := `
        INSERT INTO products (id, sku, name, unit, weight, price, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
        RETURNING ` + productColumns

	created, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query,
		product.ID, product.SKU, product.Name, product.Unit, nullWeight(product.Weight), product.Price, product.Active, time.Now().UTC(),
	))
	if err != nil {
		if errors.IsUniqueViolation(err) {
			return domain.Product{}, errors.NewConflictError(fmt.Sprintf("Já existe um produto com o SKU %s.", product.SKU))
		}
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao criar produto", err)
	}
	return created, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// Cache HIT: devolve sem ir ao banco. Falhas de cache seguem para o DB.
	if cache.GetJSON(ctxTimeout, r.Cache, key, &product) {
		return product, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	product, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto", err)
	}

	cache.SetJSON(ctxTimeout, r.Cache, key, product, r.CacheTTL)
	return product, nil
}

// FindAll lista os produtos por nome. Search casa SKU ou nome sem diferenciar maiúsculas.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		conds []string
		args  []interface{}
	)
	if filter.ActiveOnly {
		conds = append(conds, "active")
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
		conds = append(conds, fmt.Sprintf("(sku ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY lower(name)`

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos.", err)
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos", err)
	}
	return products, nil
}

// Update substitui os dados do produto e invalida o cache.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE products
        SET sku = $2, name = $3, unit = $4, weight = $5, price = $6, active = $7, updated_at = $8
        WHERE id = $1
        RETURNING ` + productColumns

	updated, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query,
		product.ID, product.SKU, product.Name, product.Unit, nullWeight(product.Weight), product.Price, product.Active, time.Now().UTC(),
	))
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado.", product.ID))
	}
	if err != nil {
		if errors.IsUniqueViolation(err) {
			return domain.Product{}, errors.NewConflictError(fmt.Sprintf("Já existe um produto com o SKU %s.", product.SKU))
		}
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao atualizar produto", err)
	}

	cache.Invalidate(ctxTimeout, r.Cache, fmt.Sprintf(productCacheKey, product.ID))
	return updated, nil
}

// Delete remove o produto e invalida o cache.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao excluir produto no DB.", err)
		return errors.NewDBError("Falha ao excluir produto", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado.", id))
	}

	cache.Invalidate(ctxTimeout, r.Cache, fmt.Sprintf(productCacheKey, id))
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p      domain.Product
		weight decimal.NullDecimal
	)
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Unit, &weight, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	if weight.Valid {
		w := weight.Decimal
		p.Weight = &w
	}
	return p, nil
}

func nullWeight(w *decimal.Decimal) decimal.NullDecimal {
	if w == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *w, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
