package production

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
	domainservices "github.com/vsinha/production/pkg/domain/services"
	"github.com/vsinha/production/pkg/infrastructure/events"
)

// ServiceConfig holds the collaborators of a Service. Zero values are
// replaced by no-op defaults.
type ServiceConfig struct {
	Logger *zap.Logger
	Events events.Publisher
	Clock  func() time.Time
}

// Service runs every production operation in its own transaction and
// publishes the resulting events once it has committed.
type Service struct {
	store     repositories.Store
	logger    *zap.Logger
	events    events.Publisher
	now       func() time.Time
	validator *domainservices.BOMValidator
}

func NewService(store repositories.Store) *Service {
	return NewServiceWithConfig(store, ServiceConfig{})
}

func NewServiceWithConfig(store repositories.Store, config ServiceConfig) *Service {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Service{
		store:     store,
		logger:    config.Logger,
		events:    config.Events,
		now:       config.Clock,
		validator: domainservices.NewBOMValidator(),
	}
}

// OrderRequest describes a new production order
type OrderRequest struct {
	Branch            entities.BranchID
	Description       string
	Responsible       string
	ExpectedStartDate *time.Time
}

// OrderFunc is a step run against a locked order by Batch
type OrderFunc func(ctx context.Context, ledger *Ledger, order *entities.ProductionOrder) error

// Batch runs fn against the order in one transaction and saves the order
// afterwards. Any error discards everything fn did.
func (s *Service) Batch(ctx context.Context, orderID uuid.UUID, fn OrderFunc) (*entities.ProductionOrder, error) {
	return s.withOrder(ctx, "batch", orderID, fn)
}

func (s *Service) withOrder(ctx context.Context, op string, orderID uuid.UUID, fn OrderFunc) (*entities.ProductionOrder, error) {
	var (
		order  *entities.ProductionOrder
		ledger *Ledger
	)
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		order, err = tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		ledger = newLedger(tx, s.now, s.logger)
		if err := fn(ctx, ledger, order); err != nil {
			return err
		}
		if err := tx.Orders().Save(ctx, order); err != nil {
			return fmt.Errorf("failed to save order %s: %w", order.OrderNumber(), err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("production operation rejected",
			zap.String("op", op),
			zap.Stringer("order_id", orderID),
			zap.Error(err))
		return nil, err
	}

	s.publish(ledger.Events())
	return order, nil
}

func (s *Service) publish(pending []events.Event) {
	for _, event := range pending {
		switch event.Type {
		case events.OrderStartedEvent, events.OrderClosedEvent, events.OrderWaitingEvent:
			s.logger.Info("order transitioned",
				zap.String("event", event.Type),
				zap.String("stream", event.Stream))
		}
		if s.events == nil {
			continue
		}
		if _, err := s.events.Publish(event); err != nil {
			s.logger.Warn("failed to publish event", zap.String("event", event.Type), zap.Error(err))
		}
	}
}

// CreateOrder opens a new order with the next order number
func (s *Service) CreateOrder(ctx context.Context, req OrderRequest) (*entities.ProductionOrder, error) {
	order, err := entities.NewProductionOrder(req.Branch, req.Description, s.now())
	if err != nil {
		return nil, err
	}
	order.Responsible = req.Responsible
	order.ExpectedStartDate = req.ExpectedStartDate

	err = s.store.Transaction(ctx, func(tx repositories.Tx) error {
		number, err := tx.Orders().NextNumber(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate order number: %w", err)
		}
		order.Number = number
		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created", zap.String("number", order.OrderNumber()), zap.String("branch", string(order.BranchID)))
	s.publish([]events.Event{events.NewOrderTransitioned(events.OrderCreatedEvent, order, entities.OrderOpened, order.OpenDate)})
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, orderID uuid.UUID) (*entities.ProductionOrder, error) {
	var order *entities.ProductionOrder
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		order, err = tx.Orders().Get(ctx, orderID)
		return err
	})
	return order, err
}

func (s *Service) GetOrderByNumber(ctx context.Context, number int64) (*entities.ProductionOrder, error) {
	var order *entities.ProductionOrder
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		order, err = tx.Orders().GetByNumber(ctx, number)
		return err
	})
	return order, err
}

func (s *Service) ListOrders(ctx context.Context, filter repositories.OrderFilter) ([]*entities.ProductionOrder, error) {
	var orders []*entities.ProductionOrder
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		orders, err = tx.Orders().List(ctx, filter)
		return err
	})
	return orders, err
}

// DeleteOrder removes an order and all of its lines. Orders in production
// hold reserved stock and cannot be deleted.
func (s *Service) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	var order *entities.ProductionOrder
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		order, err = tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == entities.OrderProducing {
			return fmt.Errorf("%w: cannot delete order %s while it is producing", entities.ErrPrecondition, order.OrderNumber())
		}
		return tx.Orders().Delete(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.publish([]events.Event{events.NewOrderTransitioned(events.OrderDeletedEvent, order, order.Status, s.now())})
	return nil
}

// AddItem adds quantity units of a finished product to an Opened order
func (s *Service) AddItem(ctx context.Context, orderID uuid.UUID, pn entities.PartNumber, quantity decimal.Decimal) (*entities.ProductionItem, error) {
	var item *entities.ProductionItem
	_, err := s.withOrder(ctx, "add item", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		product, err := l.tx.Products().GetProduct(ctx, pn)
		if err != nil {
			return err
		}
		item, err = order.AddItem(product, quantity)
		return err
	})
	return item, err
}

func (s *Service) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) error {
	_, err := s.withOrder(ctx, "remove item", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		item, err := order.RemoveItem(itemID)
		if err != nil {
			return err
		}
		return l.tx.Orders().DeleteItem(ctx, item)
	})
	return err
}

// AddMaterial plans needed units of a raw material on an Opened order
func (s *Service) AddMaterial(ctx context.Context, orderID uuid.UUID, pn entities.PartNumber, needed decimal.Decimal) (*entities.ProductionMaterial, error) {
	var material *entities.ProductionMaterial
	_, err := s.withOrder(ctx, "add material", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		product, err := l.tx.Products().GetProduct(ctx, pn)
		if err != nil {
			return err
		}
		material, err = order.AddMaterial(product, needed)
		return err
	})
	return material, err
}

// PlanMaterials derives material lines from the items' bills of materials.
// Existing lines are raised to the planned quantity, never lowered, so
// planning twice changes nothing.
func (s *Service) PlanMaterials(ctx context.Context, orderID uuid.UUID) (*entities.ProductionOrder, error) {
	return s.withOrder(ctx, "plan materials", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		if order.Status != entities.OrderOpened {
			return fmt.Errorf("%w: cannot plan materials of order %s in status %s",
				entities.ErrInvalidTransition, order.OrderNumber(), order.Status)
		}

		planned := make(map[entities.PartNumber]decimal.Decimal)
		var sequence []entities.PartNumber
		for _, item := range order.Items {
			components, err := l.tx.Products().GetComponents(ctx, item.PartNumber)
			if err != nil {
				return fmt.Errorf("failed to load components of %s: %w", item.PartNumber, err)
			}
			for _, component := range components {
				if _, seen := planned[component.ChildPN]; !seen {
					sequence = append(sequence, component.ChildPN)
				}
				planned[component.ChildPN] = planned[component.ChildPN].Add(component.Requirement(item.Quantity))
			}
		}

		for _, pn := range sequence {
			needed := planned[pn]
			if existing := order.MaterialFor(pn); existing != nil {
				if existing.Needed.LessThan(needed) {
					existing.Needed = needed
				}
				continue
			}
			product, err := l.tx.Products().GetProduct(ctx, pn)
			if err != nil {
				return err
			}
			if _, err := order.AddMaterial(product, needed); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) AddService(ctx context.Context, orderID uuid.UUID, pn entities.PartNumber, quantity decimal.Decimal) (*entities.ProductionService, error) {
	var service *entities.ProductionService
	_, err := s.withOrder(ctx, "add service", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		product, err := l.tx.Products().GetProduct(ctx, pn)
		if err != nil {
			return err
		}
		service, err = order.AddService(product, quantity)
		return err
	})
	return service, err
}

func (s *Service) RemoveService(ctx context.Context, orderID, serviceID uuid.UUID) error {
	_, err := s.withOrder(ctx, "remove service", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		service, err := order.RemoveService(serviceID)
		if err != nil {
			return err
		}
		return l.tx.Orders().DeleteService(ctx, service)
	})
	return err
}

func (s *Service) SetWaiting(ctx context.Context, orderID uuid.UUID) (*entities.ProductionOrder, error) {
	return s.withOrder(ctx, "set waiting", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		if err := order.SetWaiting(); err != nil {
			return err
		}
		l.emit(events.NewOrderTransitioned(events.OrderWaitingEvent, order, entities.OrderOpened, l.now()))
		return nil
	})
}

func (s *Service) StartProduction(ctx context.Context, orderID uuid.UUID) (*entities.ProductionOrder, error) {
	return s.withOrder(ctx, "start production", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		return l.StartProduction(ctx, order)
	})
}

// Allocate reserves stock for one material. A nil quantity reserves as much
// as is still needed and available.
func (s *Service) Allocate(ctx context.Context, orderID, materialID uuid.UUID, quantity *decimal.Decimal) (*entities.ProductionMaterial, error) {
	var material *entities.ProductionMaterial
	_, err := s.withOrder(ctx, "allocate", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		var err error
		if material, err = order.Material(materialID); err != nil {
			return err
		}
		_, err = l.Allocate(ctx, order, material, quantity)
		return err
	})
	return material, err
}

func (s *Service) Consume(ctx context.Context, orderID, materialID uuid.UUID, quantity decimal.Decimal) (*entities.ProductionMaterial, error) {
	return s.materialOp(ctx, "consume", orderID, materialID, quantity, (*Ledger).Consume)
}

func (s *Service) LoseMaterial(ctx context.Context, orderID, materialID uuid.UUID, quantity decimal.Decimal) (*entities.ProductionMaterial, error) {
	return s.materialOp(ctx, "lose material", orderID, materialID, quantity, (*Ledger).LoseMaterial)
}

func (s *Service) materialOp(ctx context.Context, op string, orderID, materialID uuid.UUID, quantity decimal.Decimal,
	move func(*Ledger, context.Context, *entities.ProductionOrder, *entities.ProductionMaterial, decimal.Decimal) error,
) (*entities.ProductionMaterial, error) {
	var material *entities.ProductionMaterial
	_, err := s.withOrder(ctx, op, orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		var err error
		if material, err = order.Material(materialID); err != nil {
			return err
		}
		return move(l, ctx, order, material, quantity)
	})
	return material, err
}

func (s *Service) Produce(ctx context.Context, orderID, itemID uuid.UUID, quantity decimal.Decimal) (*entities.ProductionOrder, error) {
	return s.withOrder(ctx, "produce", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		item, err := order.Item(itemID)
		if err != nil {
			return err
		}
		return l.Produce(ctx, order, item, quantity)
	})
}

func (s *Service) LoseItem(ctx context.Context, orderID, itemID uuid.UUID, quantity decimal.Decimal) (*entities.ProductionOrder, error) {
	return s.withOrder(ctx, "lose item", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		item, err := order.Item(itemID)
		if err != nil {
			return err
		}
		return l.LoseItem(ctx, order, item, quantity)
	})
}

// TryFinalize closes the order if every item is done and reports whether
// the order is closed afterwards.
func (s *Service) TryFinalize(ctx context.Context, orderID uuid.UUID) (bool, error) {
	order, err := s.withOrder(ctx, "finalize", orderID, func(ctx context.Context, l *Ledger, order *entities.ProductionOrder) error {
		l.TryFinalize(order)
		return nil
	})
	if err != nil {
		return false, err
	}
	return order.IsClosed(), nil
}

// ReceiveStock adds on-hand quantity of a storable product at a branch
func (s *Service) ReceiveStock(ctx context.Context, pn entities.PartNumber, branch entities.BranchID, quantity decimal.Decimal) error {
	if branch == "" {
		return fmt.Errorf("branch cannot be empty")
	}
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		if _, err := tx.Products().GetStorable(ctx, pn); err != nil {
			return err
		}
		return tx.Stock().Increase(ctx, pn, branch, quantity)
	})
	if err != nil {
		return err
	}
	s.publish([]events.Event{events.NewStockReceived(pn, branch, quantity, s.now())})
	return nil
}

func (s *Service) Balance(ctx context.Context, pn entities.PartNumber, branch entities.BranchID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		balance, err = tx.Stock().Balance(ctx, pn, branch)
		return err
	})
	return balance, err
}

func (s *Service) ListBalances(ctx context.Context, branch entities.BranchID) ([]*entities.StockBalance, error) {
	var balances []*entities.StockBalance
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		balances, err = tx.Stock().ListBalances(ctx, branch)
		return err
	})
	return balances, err
}

// MaterialStock is the balance of a material's product at its order's branch
func (s *Service) MaterialStock(ctx context.Context, orderID, materialID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		order, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		material, err := order.Material(materialID)
		if err != nil {
			return err
		}
		balance, err = tx.Stock().Balance(ctx, material.PartNumber, order.BranchID)
		return err
	})
	return balance, err
}

func (s *Service) History(ctx context.Context, filter repositories.HistoryFilter) ([]*entities.HistoryEntry, error) {
	var entries []*entities.HistoryEntry
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		entries, err = tx.History().List(ctx, filter)
		return err
	})
	return entries, err
}

// LoadCatalog validates and saves products and their bills of materials.
// The new entries are checked together with what is already stored, so a
// BOM may reference products loaded earlier.
func (s *Service) LoadCatalog(ctx context.Context, products []*entities.Product, lines []*entities.BOMLine) error {
	return s.store.Transaction(ctx, func(tx repositories.Tx) error {
		stored, err := tx.Products().ListProducts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list products: %w", err)
		}
		storedLines, err := tx.Products().GetAllBOMLines(ctx)
		if err != nil {
			return fmt.Errorf("failed to list BOM lines: %w", err)
		}
		if err := s.validator.ValidateCatalog(mergeProducts(stored, products), mergeBOMLines(storedLines, lines)).Err(); err != nil {
			return err
		}

		for _, product := range products {
			if err := tx.Products().SaveProduct(ctx, product); err != nil {
				return fmt.Errorf("failed to save product %s: %w", product.PartNumber, err)
			}
		}
		if len(lines) == 0 {
			return nil
		}
		if err := tx.Products().SaveBOMLines(ctx, lines); err != nil {
			return fmt.Errorf("failed to save BOM lines: %w", err)
		}
		return nil
	})
}

func mergeProducts(stored, incoming []*entities.Product) []*entities.Product {
	index := make(map[entities.PartNumber]int, len(stored)+len(incoming))
	merged := make([]*entities.Product, 0, len(stored)+len(incoming))
	for _, group := range [][]*entities.Product{stored, incoming} {
		for _, product := range group {
			if i, ok := index[product.PartNumber]; ok {
				merged[i] = product
				continue
			}
			index[product.PartNumber] = len(merged)
			merged = append(merged, product)
		}
	}
	return merged
}

// mergeBOMLines drops stored lines that an incoming line replaces. Duplicates
// within incoming are kept so the validator still reports them.
func mergeBOMLines(stored, incoming []*entities.BOMLine) []*entities.BOMLine {
	replaced := make(map[[2]entities.PartNumber]bool, len(incoming))
	for _, line := range incoming {
		replaced[[2]entities.PartNumber{line.ParentPN, line.ChildPN}] = true
	}
	merged := make([]*entities.BOMLine, 0, len(stored)+len(incoming))
	for _, line := range stored {
		if !replaced[[2]entities.PartNumber{line.ParentPN, line.ChildPN}] {
			merged = append(merged, line)
		}
	}
	return append(merged, incoming...)
}

func (s *Service) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	var products []*entities.Product
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		var err error
		products, err = tx.Products().ListProducts(ctx)
		return err
	})
	return products, err
}
