package sequenceservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
	"gopedidos/internal/pkg/metrics"
)

// CounterRepository define o contrato de persistência dos contadores de sequência.
type CounterRepository interface {
	// Get devolve o contador do escopo. Um escopo nunca usado devolve Counter{Scope: scope} sem erro.
	Get(ctx context.Context, scope string) (domain.Counter, error)
	// CompareAndSwap grava next somente se a versão armazenada ainda for expectedVersion.
	// Devolve false (sem erro) quando outro escritor venceu a corrida.
	CompareAndSwap(ctx context.Context, scope string, expectedVersion int64, next domain.Counter) (bool, error)
}

// Options configura o formato e a política de tentativas.
type Options struct {
	Prefix       string
	Width        int
	MaxRetries   uint64
	RetryBackoff time.Duration
}

// Service emite números de pedido únicos e crescentes por período.
type Service struct {
	repo    CounterRepository
	opts    Options
	logger  logger.Logger
	metrics *metrics.OrderMetrics
}

// errLostRace sinaliza ao retry que o CAS perdeu para outro escritor.
var errLostRace = errors.New("sequência alterada por outro escritor")

// NewService cria o gerador de sequência. Width fora de 4..6 cai para 4.
func NewService(repo CounterRepository, opts Options, logger logger.Logger, m *metrics.OrderMetrics) *Service {
	if opts.Width < 4 || opts.Width > 6 {
		opts.Width = 4
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 20 * time.Millisecond
	}
	return &Service{repo: repo, opts: opts, logger: logger, metrics: m}
}

// Scope devolve o escopo da sequência para o instante informado (YYYYMM, UTC).
func Scope(at time.Time) string {
	return at.UTC().Format("200601")
}

// Format monta o número de exibição: PREFIXO-ESCOPO-SEQ, com SEQ preenchida com zeros até width.
// Sequências maiores que a largura não são truncadas.
func Format(prefix, scope string, seq int64, width int) string {
	return fmt.Sprintf("%s-%s-%0*d", prefix, scope, width, seq)
}

// NextSequence incrementa atomicamente o contador do escopo e devolve o novo valor.
// O primeiro valor de um escopo é 1.
func (s *Service) NextSequence(ctx context.Context, scope string) (int64, error) {
	var next int64
	attempts := 0

	backoff := retry.WithMaxRetries(s.opts.MaxRetries, retry.NewConstant(s.opts.RetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		current, err := s.repo.Get(ctx, scope)
		if err != nil {
			return err
		}

		candidate := domain.Counter{Scope: scope, Seq: current.Seq + 1, Version: current.Version + 1}
		swapped, err := s.repo.CompareAndSwap(ctx, scope, current.Version, candidate)
		if err != nil {
			return err
		}
		if !swapped {
			s.metrics.IncSequenceConflict()
			return retry.RetryableError(errLostRace)
		}

		next = candidate.Seq
		return nil
	})

	if err != nil {
		if errors.Is(err, errLostRace) {
			s.metrics.IncSequenceExhausted()
			s.logger.Warn("Tentativas de incremento da sequência esgotadas.", map[string]interface{}{
				"scope":    scope,
				"attempts": attempts,
			})
			return 0, apperror.NewConflictError(fmt.Sprintf("Não foi possível reservar um número para o período %s; tente novamente.", scope))
		}
		var appErr apperror.AppError
		if errors.As(err, &appErr) {
			return 0, err
		}
		return 0, apperror.NewDBError("Falha ao incrementar a sequência de pedidos.", err)
	}

	s.logger.Debug("Sequência reservada.", map[string]interface{}{
		"scope":    scope,
		"seq":      next,
		"attempts": attempts,
	})
	return next, nil
}

// Reserve reserva o próximo número de pedido do período de at e devolve-o formatado.
func (s *Service) Reserve(ctx context.Context, at time.Time) (string, error) {
	scope := Scope(at)
	seq, err := s.NextSequence(ctx, scope)
	if err != nil {
		return "", err
	}
	return Format(s.opts.Prefix, scope, seq, s.opts.Width), nil
}
