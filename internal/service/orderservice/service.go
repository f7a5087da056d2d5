package orderservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gopedidos/internal/domain"
	apperror "gopedidos/internal/errors"
	"gopedidos/internal/pkg/logger"
	"gopedidos/internal/pkg/metrics"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// OrderRepository define o contrato que o Serviço de Pedidos espera da camada de Persistência.
// FindByID, UpdateContents, UpdateStatus e MarkDeleted tratam pedidos excluídos como inexistentes.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	FindAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateContents(ctx context.Context, order domain.Order) (domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (domain.Order, error)
	MarkDeleted(ctx context.Context, id string) error
}

// CustomerReader fornece os dados atuais do cliente para o snapshot.
type CustomerReader interface {
	FindByID(ctx context.Context, id string) (domain.Customer, error)
}

// ProductReader fornece os dados atuais do produto para o snapshot.
type ProductReader interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
}

// NumberReserver reserva o próximo número de pedido do período.
type NumberReserver interface {
	Reserve(ctx context.Context, at time.Time) (string, error)
}

// Exporter gera o documento compartilhável de um pedido.
type Exporter interface {
	Export(order domain.Order) (domain.ExportDocument, error)
}

// Service orquestra o ciclo de vida e os totais dos pedidos.
type Service struct {
	repo      OrderRepository
	customers CustomerReader
	products  ProductReader
	numbers   NumberReserver
	exporter  Exporter
	lifecycle Lifecycle
	logger    logger.Logger
	metrics   *metrics.OrderMetrics
	now       func() time.Time
}

// Option ajusta o Service na construção.
type Option func(*Service)

// WithLifecycle substitui a política de transições padrão.
func WithLifecycle(l Lifecycle) Option {
	return func(s *Service) { s.lifecycle = l }
}

// WithMetrics habilita os contadores Prometheus.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock define a fonte de tempo usada para o período do número do pedido.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService cria e retorna uma nova instância do Serviço de Pedidos.
func NewService(repo OrderRepository, customers CustomerReader, products ProductReader, numbers NumberReserver, exporter Exporter, logger logger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		customers: customers,
		products:  products,
		numbers:   numbers,
		exporter:  exporter,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder cria um orçamento com snapshots do cliente e dos produtos e um número novo.
func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return domain.Order{}, apperror.NewValidationError("O cliente é obrigatório.")
	}
	if len(req.Items) == 0 {
		return domain.Order{}, apperror.NewValidationError("O pedido precisa de pelo menos um item.")
	}

	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return domain.Order{}, propagate(err, "Falha ao carregar o cliente.")
	}

	order := domain.Order{
		Status:           domain.StatusQuote,
		CustomerID:       customer.ID,
		CustomerSnapshot: BuildCustomerSnapshot(customer),
		Items:            make([]domain.OrderItem, 0, len(req.Items)),
		Notes:            strings.TrimSpace(req.Notes),
	}
	for i, in := range req.Items {
		if order.ItemIndex(in.ProductID) >= 0 {
			return domain.Order{}, apperror.NewValidationError(fmt.Sprintf("Item %d: produto repetido no pedido.", i+1))
		}
		item, err := s.buildItem(ctx, in)
		if err != nil {
			return domain.Order{}, err
		}
		order.Items = append(order.Items, item)
	}

	if err := Retotal(&order, req.Discount, req.Freight); err != nil {
		return domain.Order{}, err
	}

	number, err := s.numbers.Reserve(ctx, s.now())
	if err != nil {
		s.logger.Error("Falha ao reservar número de pedido.", err)
		return domain.Order{}, propagate(err, "Falha ao reservar número de pedido.")
	}
	order.OrderNumber = number

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		s.metrics.IncOrphanedNumber()
		s.logger.Error(fmt.Sprintf("Número %s reservado mas o pedido não foi gravado; número órfão.", number), err)
		return domain.Order{}, propagate(err, "Falha ao gravar o pedido.")
	}

	s.metrics.IncCreated()
	s.logger.Info("Orçamento criado.", map[string]interface{}{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"items":        len(created.Items),
		"total":        created.Totals.Total.StringFixed(2),
	})
	return created, nil
}

// GetOrder devolve o pedido materializado.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, propagate(err, "Falha ao carregar o pedido.")
	}
	return order, nil
}

// ListOrders lista os pedidos não excluídos, mais recentes primeiro.
func (s *Service) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.NewValidationError(fmt.Sprintf("Status desconhecido: %q.", filter.Status))
	}
	switch {
	case filter.Limit <= 0:
		filter.Limit = defaultListLimit
	case filter.Limit > maxListLimit:
		filter.Limit = maxListLimit
	}
	filter.Search = strings.TrimSpace(filter.Search)

	orders, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, propagate(err, "Falha ao listar pedidos.")
	}
	return orders, nil
}

// AddItem adiciona um produto ao pedido com snapshot do momento da inclusão.
func (s *Service) AddItem(ctx context.Context, id string, in domain.OrderItemRequest) (domain.Order, error) {
	return s.mutate(ctx, id, "add_item", func(order *domain.Order) error {
		if order.ItemIndex(in.ProductID) >= 0 {
			return apperror.NewValidationError("O produto já está no pedido; altere a quantidade do item existente.")
		}
		item, err := s.buildItem(ctx, in)
		if err != nil {
			return err
		}
		order.Items = append(order.Items, item)
		return nil
	})
}

// UpdateItem aplica quantidade e preço num único recálculo e numa única gravação.
// Qualquer valor inválido rejeita a alteração inteira.
func (s *Service) UpdateItem(ctx context.Context, id, productID string, change domain.ItemChange) (domain.Order, error) {
	if change.Qty == nil && change.UnitPrice == nil {
		return domain.Order{}, apperror.NewValidationError("Informe a quantidade ou o preço unitário.")
	}
	if change.Qty != nil && *change.Qty < 1 {
		return domain.Order{}, apperror.NewValidationError("A quantidade deve ser no mínimo 1.")
	}
	if change.UnitPrice != nil && change.UnitPrice.IsNegative() {
		return domain.Order{}, apperror.NewValidationError("O preço unitário não pode ser negativo.")
	}
	return s.mutate(ctx, id, "update_item", func(order *domain.Order) error {
		idx, err := itemIndex(order, productID)
		if err != nil {
			return err
		}
		if change.Qty != nil {
			order.Items[idx].Qty = *change.Qty
		}
		if change.UnitPrice != nil {
			order.Items[idx].UnitPrice = *change.UnitPrice
		}
		return nil
	})
}

// UpdateItemQuantity altera a quantidade de um item e recalcula os totais.
func (s *Service) UpdateItemQuantity(ctx context.Context, id, productID string, qty int) (domain.Order, error) {
	return s.UpdateItem(ctx, id, productID, domain.ItemChange{Qty: &qty})
}

// UpdateItemPrice altera o preço unitário de um item e recalcula os totais.
func (s *Service) UpdateItemPrice(ctx context.Context, id, productID string, price decimal.Decimal) (domain.Order, error) {
	return s.UpdateItem(ctx, id, productID, domain.ItemChange{UnitPrice: &price})
}

// DeleteOrderItem remove um item. O pedido pode ficar sem itens.
func (s *Service) DeleteOrderItem(ctx context.Context, id, productID string) (domain.Order, error) {
	return s.mutate(ctx, id, "delete_item", func(order *domain.Order) error {
		idx, err := itemIndex(order, productID)
		if err != nil {
			return err
		}
		order.Items = append(order.Items[:idx], order.Items[idx+1:]...)
		return nil
	})
}

// PatchOrder altera observações, desconto e frete numa única gravação.
// Campos ausentes mantêm o valor atual.
func (s *Service) PatchOrder(ctx context.Context, id string, patch domain.OrderPatch) (domain.Order, error) {
	if patch.Notes == nil && patch.Discount == nil && patch.Freight == nil {
		return domain.Order{}, apperror.NewValidationError("Informe notes, discount ou freight.")
	}
	return s.mutate(ctx, id, "patch", func(order *domain.Order) error {
		if patch.Discount != nil {
			order.Totals.Discount = *patch.Discount
		}
		if patch.Freight != nil {
			order.Totals.Freight = *patch.Freight
		}
		if patch.Notes != nil {
			order.Notes = strings.TrimSpace(*patch.Notes)
		}
		return nil
	})
}

// SetAdjustments altera desconto e frete.
func (s *Service) SetAdjustments(ctx context.Context, id string, adj domain.AdjustmentsRequest) (domain.Order, error) {
	return s.PatchOrder(ctx, id, domain.OrderPatch{Discount: &adj.Discount, Freight: &adj.Freight})
}

// UpdateNotes altera apenas as observações.
func (s *Service) UpdateNotes(ctx context.Context, id, notes string) (domain.Order, error) {
	return s.PatchOrder(ctx, id, domain.OrderPatch{Notes: &notes})
}

// TransitionStatus move o pedido para target respeitando o ciclo de vida.
// O número do pedido nunca muda.
func (s *Service) TransitionStatus(ctx context.Context, id string, target domain.OrderStatus) (domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, propagate(err, "Falha ao carregar o pedido.")
	}
	if err := s.lifecycle.Check(order, target); err != nil {
		s.logger.Warn("Transição de status rejeitada.", map[string]interface{}{
			"order_id": id,
			"from":     order.Status,
			"to":       target,
		})
		return domain.Order{}, err
	}

	updated, err := s.repo.UpdateStatus(ctx, id, order.Status, target)
	if err != nil {
		return domain.Order{}, propagate(err, "Falha ao atualizar o status do pedido.")
	}

	s.metrics.IncTransition(string(order.Status), string(target))
	s.logger.Info("Status do pedido atualizado.", map[string]interface{}{
		"order_id":     id,
		"order_number": updated.OrderNumber,
		"from":         order.Status,
		"to":           target,
	})
	return updated, nil
}

// DuplicateOrder cria um novo orçamento a partir de um pedido existente.
// Cliente e produtos são lidos novamente e ganham snapshots novos; quantidades, preços,
// desconto, frete e observações são copiados.
func (s *Service) DuplicateOrder(ctx context.Context, id string) (domain.Order, error) {
	source, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, propagate(err, "Falha ao carregar o pedido de origem.")
	}
	if len(source.Items) == 0 {
		return domain.Order{}, apperror.NewValidationError("Não é possível duplicar um pedido sem itens.")
	}

	req := domain.CreateOrderRequest{
		CustomerID: source.CustomerID,
		Items:      make([]domain.OrderItemRequest, 0, len(source.Items)),
		Discount:   source.Totals.Discount,
		Freight:    source.Totals.Freight,
		Notes:      source.Notes,
	}
	for _, item := range source.Items {
		price := item.UnitPrice
		req.Items = append(req.Items, domain.OrderItemRequest{ProductID: item.ProductID, Qty: item.Qty, UnitPrice: &price})
	}

	dup, err := s.CreateOrder(ctx, req)
	if err != nil {
		return domain.Order{}, err
	}
	s.logger.Info("Pedido duplicado.", map[string]interface{}{
		"source_order_number": source.OrderNumber,
		"order_number":        dup.OrderNumber,
	})
	return dup, nil
}

// DeleteOrder exclui logicamente o pedido. O número não é reutilizado.
func (s *Service) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.MarkDeleted(ctx, id); err != nil {
		return propagate(err, "Falha ao excluir o pedido.")
	}
	s.logger.Info("Pedido excluído.", map[string]interface{}{"order_id": id})
	return nil
}

// ExportOrder gera o documento do pedido para compartilhamento.
func (s *Service) ExportOrder(ctx context.Context, id string) (domain.ExportDocument, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.ExportDocument{}, propagate(err, "Falha ao carregar o pedido.")
	}
	doc, err := s.exporter.Export(order)
	if err != nil {
		s.logger.Error("Falha ao gerar o documento do pedido.", err)
		return domain.ExportDocument{}, apperror.NewInternalError("Falha ao exportar o pedido.", err)
	}
	return doc, nil
}

// buildItem valida a entrada e monta o item com o snapshot atual do produto.
func (s *Service) buildItem(ctx context.Context, in domain.OrderItemRequest) (domain.OrderItem, error) {
	if strings.TrimSpace(in.ProductID) == "" {
		return domain.OrderItem{}, apperror.NewValidationError("O produto do item é obrigatório.")
	}
	if in.Qty < 1 {
		return domain.OrderItem{}, apperror.NewValidationError("A quantidade deve ser no mínimo 1.")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return domain.OrderItem{}, apperror.NewValidationError("O preço unitário não pode ser negativo.")
	}

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return domain.OrderItem{}, propagate(err, "Falha ao carregar o produto.")
	}
	if !product.Active {
		return domain.OrderItem{}, apperror.NewValidationError(fmt.Sprintf("O produto %s está inativo.", product.SKU))
	}

	price := product.Price
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	total, err := ComputeItemTotal(in.Qty, price)
	if err != nil {
		return domain.OrderItem{}, err
	}
	return domain.OrderItem{
		ProductID:       product.ID,
		ProductSnapshot: BuildProductSnapshot(product),
		Qty:             in.Qty,
		UnitPrice:       price,
		Total:           total,
	}, nil
}

// mutate carrega o pedido, aplica fn, recalcula os totais e grava.
func (s *Service) mutate(ctx context.Context, id, op string, fn func(*domain.Order) error) (domain.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, propagate(err, "Falha ao carregar o pedido.")
	}

	if err := fn(&order); err != nil {
		return domain.Order{}, err
	}
	if err := Retotal(&order, order.Totals.Discount, order.Totals.Freight); err != nil {
		return domain.Order{}, err
	}

	updated, err := s.repo.UpdateContents(ctx, order)
	if err != nil {
		return domain.Order{}, propagate(err, "Falha ao gravar o pedido.")
	}

	s.logger.Debug("Pedido atualizado.", map[string]interface{}{
		"order_id": id,
		"op":       op,
		"total":    updated.Totals.Total.StringFixed(2),
	})
	return updated, nil
}

func itemIndex(order *domain.Order, productID string) (int, error) {
	idx := order.ItemIndex(productID)
	if idx < 0 {
		return -1, apperror.NewNotFoundError("Item não encontrado no pedido.")
	}
	return idx, nil
}

// propagate mantém erros tipados da aplicação e embrulha o resto como erro interno.
func propagate(err error, msg string) error {
	var appErr apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternalError(msg, err)
}
