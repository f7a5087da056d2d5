package orderrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gopedidos/internal/domain"
	"gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
)

// OrderRepository persiste pedidos no PostgreSQL. Itens e snapshot do cliente ficam em JSONB,
// totais em colunas NUMERIC. Exclusão é lógica (deleted_at).
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// liveOrder exclui pedidos com deleted_at e os excluídos no formato antigo (status 'deleted').
const liveOrder = `deleted_at IS NULL AND lower(status) <> '` + legacyDeletedStatus + `'`

const orderColumns = `id, order_number, status, customer_id, customer_snapshot, items,
        subtotal, discount, freight, total, notes, created_at, updated_at, deleted_at`

// Create insere o pedido. Número de pedido repetido vira ConflictError.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	customerJSON, itemsJSON, err := encodeOrder(order)
	if err != nil {
		return domain.Order{}, errors.NewInternalError("Falha ao serializar pedido.", err)
	}

	query := `
        INSERT INTO orders (id, order_number, status, customer_id, customer_snapshot, items,
                            subtotal, discount, freight, total, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
        RETURNING ` + orderColumns

	created, err := r.scanOrder(r.DB.QueryRowContext(ctxTimeout, query,
		order.ID, order.OrderNumber, order.Status, order.CustomerID, customerJSON, itemsJSON,
		order.Totals.Subtotal, order.Totals.Discount, order.Totals.Freight, order.Totals.Total,
		order.Notes, time.Now().UTC(),
	))
	if err != nil {
		if errors.IsUniqueViolation(err) {
			return domain.Order{}, errors.NewConflictError(fmt.Sprintf("Número de pedido já utilizado: %s.", order.OrderNumber))
		}
		r.logger.Error("Falha ao inserir pedido no DB.", err)
		return domain.Order{}, errors.NewDBError("Falha ao criar pedido", err)
	}

	r.logger.Debug("Pedido inserido.", map[string]interface{}{"id": created.ID, "order_number": created.OrderNumber})
	return created, nil
}

// FindByID busca um pedido não excluído.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND ` + liveOrder
	order, err := r.scanOrder(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar pedido no DB.", err)
		return domain.Order{}, errors.NewDBError("Falha ao buscar pedido", err)
	}
	return order, nil
}

// FindAll lista pedidos não excluídos, mais recentes primeiro.
func (r *OrderRepository) FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	conds := []string{liveOrder}
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
		conds = append(conds, fmt.Sprintf("(order_number ILIKE $%d OR customer_snapshot->>'name' ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, order_number DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao listar pedidos.", err)
		return nil, errors.NewDBError("Falha ao listar pedidos", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler pedido", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar pedidos", err)
	}
	return orders, nil
}

// UpdateContents grava itens, totais e observações no mesmo UPDATE.
func (r *OrderRepository) UpdateContents(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, itemsJSON, err := encodeOrder(order)
	if err != nil {
		return domain.Order{}, errors.NewInternalError("Falha ao serializar pedido.", err)
	}

	query := `
        UPDATE orders
        SET items = $2, subtotal = $3, discount = $4, freight = $5, total = $6, notes = $7, updated_at = $8
        WHERE id = $1 AND ` + liveOrder + `
        RETURNING ` + orderColumns

	updated, err := r.scanOrder(r.DB.QueryRowContext(ctxTimeout, query,
		order.ID, itemsJSON, order.Totals.Subtotal, order.Totals.Discount, order.Totals.Freight, order.Totals.Total,
		order.Notes, time.Now().UTC(),
	))
	if err == sql.ErrNoRows {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", order.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar pedido no DB.", err)
		return domain.Order{}, errors.NewDBError("Falha ao atualizar pedido", err)
	}
	return updated, nil
}

// UpdateStatus troca o status apenas se o status atual ainda for from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE orders
        SET status = $3, updated_at = $4
        WHERE id = $1 AND status = $2 AND ` + liveOrder + `
        RETURNING ` + orderColumns

	updated, err := r.scanOrder(r.DB.QueryRowContext(ctxTimeout, query, id, from, to, time.Now().UTC()))
	if err == sql.ErrNoRows {
		// Distingue pedido inexistente de status alterado por outra operação.
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return domain.Order{}, findErr
		}
		r.logger.Warn("Status do pedido mudou durante a transição.", map[string]interface{}{
			"order_id":      id,
			"expected_from": from,
		})
		return domain.Order{}, errors.NewConflictError("O status do pedido foi alterado por outra operação. Tente novamente.")
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar status do pedido.", err)
		return domain.Order{}, errors.NewDBError("Falha ao atualizar status", err)
	}
	return updated, nil
}

// MarkDeleted exclui logicamente o pedido.
func (r *OrderRepository) MarkDeleted(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE orders SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND `+liveOrder, id, now)
	if err != nil {
		r.logger.Error("Falha ao excluir pedido.", err)
		return errors.NewDBError("Falha ao excluir pedido", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if n == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Pedido com ID %s não encontrado.", id))
	}
	return nil
}

// NormalizeLegacy reescreve no formato canônico os pedidos gravados por clientes antigos.
// Devolve quantos pedidos foram alterados.
func (r *OrderRepository) NormalizeLegacy(ctx context.Context) (int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+orderColumns+` FROM orders`)
	if err != nil {
		return 0, errors.NewDBError("Falha ao ler pedidos para normalização", err)
	}

	var pending []domain.Order
	for rows.Next() {
		order, legacy, err := scanRaw(rows)
		if err != nil {
			rows.Close()
			return 0, errors.NewDBError("Falha ao ler pedido para normalização", err)
		}
		if legacy {
			pending = append(pending, order)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, errors.NewDBError("Falha ao iterar pedidos", err)
	}

	for _, order := range pending {
		_, itemsJSON, err := encodeOrder(order)
		if err != nil {
			return 0, errors.NewInternalError("Falha ao serializar pedido.", err)
		}
		_, err = r.DB.ExecContext(ctx, `
            UPDATE orders SET status = $2, items = $3, subtotal = $4, total = $5,
                              deleted_at = COALESCE(deleted_at, $6)
            WHERE id = $1`,
			order.ID, order.Status, itemsJSON, order.Totals.Subtotal, order.Totals.Total, order.DeletedAt)
		if err != nil {
			return 0, errors.NewDBError(fmt.Sprintf("Falha ao normalizar pedido %s", order.ID), err)
		}
		r.logger.Info("Pedido normalizado.", map[string]interface{}{"id": order.ID, "order_number": order.OrderNumber})
	}
	return len(pending), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *OrderRepository) scanOrder(row rowScanner) (domain.Order, error) {
	order, legacy, err := scanRaw(row)
	if err != nil {
		return domain.Order{}, err
	}
	if legacy {
		r.logger.Debug("Pedido em formato antigo normalizado na leitura.", map[string]interface{}{"id": order.ID})
	}
	return order, nil
}

// scanRaw lê a linha e normaliza status e itens antigos. legacy indica que algo foi convertido.
func scanRaw(row rowScanner) (domain.Order, bool, error) {
	var (
		o            domain.Order
		status       string
		customerJSON []byte
		itemsJSON    []byte
		notes        sql.NullString
		deletedAt    sql.NullTime
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &status, &o.CustomerID, &customerJSON, &itemsJSON,
		&o.Totals.Subtotal, &o.Totals.Discount, &o.Totals.Freight, &o.Totals.Total,
		&notes, &o.CreatedAt, &o.UpdatedAt, &deletedAt)
	if err != nil {
		return domain.Order{}, false, err
	}

	var statusLegacy, legacyDeleted, itemsLegacy bool
	o.Status, statusLegacy, legacyDeleted = NormalizeStatus(status)
	o.Notes = notes.String
	switch {
	case deletedAt.Valid:
		t := deletedAt.Time
		o.DeletedAt = &t
	case legacyDeleted:
		t := o.UpdatedAt
		o.DeletedAt = &t
	}
	if o.CustomerSnapshot, err = normalizeCustomerSnapshot(customerJSON); err != nil {
		return domain.Order{}, false, fmt.Errorf("customer_snapshot inválido no pedido %s: %w", o.ID, err)
	}
	if o.Items, itemsLegacy, err = NormalizeItems(itemsJSON); err != nil {
		return domain.Order{}, false, fmt.Errorf("items inválidos no pedido %s: %w", o.ID, err)
	}
	if itemsLegacy {
		o.Totals.Subtotal = subtotalOf(o.Items)
		o.Totals.Total = o.Totals.Subtotal.Sub(o.Totals.Discount).Add(o.Totals.Freight)
	}
	return o, statusLegacy || itemsLegacy, nil
}

func encodeOrder(order domain.Order) (customerJSON, itemsJSON []byte, err error) {
	if customerJSON, err = json.Marshal(order.CustomerSnapshot); err != nil {
		return nil, nil, err
	}
	items := order.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	if itemsJSON, err = json.Marshal(items); err != nil {
		return nil, nil, err
	}
	return customerJSON, itemsJSON, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
