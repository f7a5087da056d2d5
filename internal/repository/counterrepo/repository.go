package counterrepo

import (
	"context"
	"database/sql"
	"time"

	"gopedidos/internal/domain"
	"gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
)

// CounterRepository guarda um contador por escopo em order_counters.
// O incremento usa controle de concorrência otimista (OCC) pela coluna version.
type CounterRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCounterRepository cria e retorna uma nova instância do Repositório de Contadores.
func NewCounterRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CounterRepository {
	return &CounterRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

// Get lê o contador do escopo. Escopo sem linha devolve versão 0.
func (r *CounterRepository) Get(ctx context.Context, scope string) (domain.Counter, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	c := domain.Counter{Scope: scope}
	err := r.DB.QueryRowContext(ctxTimeout,
		`SELECT seq, version FROM order_counters WHERE scope = $1`, scope,
	).Scan(&c.Seq, &c.Version)
	if err == sql.ErrNoRows {
		return c, nil
	}
	if err != nil {
		r.logger.Error("Falha ao ler contador de sequência.", err)
		return domain.Counter{}, errors.NewDBError("Falha ao ler contador", err)
	}
	return c, nil
}

// CompareAndSwap grava next se a versão armazenada ainda for expectedVersion.
// Versão 0 significa "linha ainda não existe": a primeira escrita é um INSERT que perde
// a corrida silenciosamente se outro escritor inserir antes.
func (r *CounterRepository) CompareAndSwap(ctx context.Context, scope string, expectedVersion int64, next domain.Counter) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		result sql.Result
		err    error
	)
	if expectedVersion == 0 {
		result, err = r.DB.ExecContext(ctxTimeout, `
            INSERT INTO order_counters (scope, seq, version, updated_at)
            VALUES ($1, $2, $3, now())
            ON CONFLICT (scope) DO NOTHING`,
			scope, next.Seq, next.Version)
	} else {
		result, err = r.DB.ExecContext(ctxTimeout, `
            UPDATE order_counters
            SET seq = $2, version = $3, updated_at = now()
            WHERE scope = $1 AND version = $4`,
			scope, next.Seq, next.Version, expectedVersion)
	}
	if err != nil {
		r.logger.Error("Falha ao gravar contador de sequência.", err)
		return false, errors.NewDBError("Falha ao gravar contador", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if n == 0 {
		r.logger.Debug("CAS do contador perdeu a corrida.", map[string]interface{}{
			"scope":            scope,
			"expected_version": expectedVersion,
		})
		return false, nil
	}
	return true, nil
}
