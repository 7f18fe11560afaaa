package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of a production order
type OrderStatus int

const (
	OrderOpened OrderStatus = iota
	OrderWaiting
	OrderProducing
	OrderClosed
)

// String method for OrderStatus enum
func (s OrderStatus) String() string {
	switch s {
	case OrderOpened:
		return "Opened"
	case OrderWaiting:
		return "Waiting"
	case OrderProducing:
		return "Producing"
	case OrderClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// ParseOrderStatus accepts the String() form, case-sensitive
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, status := range []OrderStatus{OrderOpened, OrderWaiting, OrderProducing, OrderClosed} {
		if status.String() == s {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown order status: %s", s)
}

// ProductionOrder aggregates the items to build, the materials they draw
// from and the services they use. Items, materials and services live and die
// with the order.
type ProductionOrder struct {
	ID                uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	Number            int64       `gorm:"not null;uniqueIndex" json:"number"`
	Status            OrderStatus `gorm:"not null;default:0;index" json:"status"`
	OpenDate          time.Time   `gorm:"not null" json:"open_date"`
	ExpectedStartDate *time.Time  `json:"expected_start_date,omitempty"`
	StartDate         *time.Time  `json:"start_date,omitempty"`
	CloseDate         *time.Time  `json:"close_date,omitempty"`
	Description       string      `gorm:"type:text" json:"description"`
	Responsible       string      `gorm:"size:128" json:"responsible,omitempty"`
	BranchID          BranchID    `gorm:"size:64;not null;index" json:"branch_id"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`

	Items     []*ProductionItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Materials []*ProductionMaterial `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"materials"`
	Services  []*ProductionService  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"services"`
}

func (ProductionOrder) TableName() string {
	return "production_orders"
}

// NewProductionOrder creates an Opened order with no lines
func NewProductionOrder(branch BranchID, description string, openDate time.Time) (*ProductionOrder, error) {
	if string(branch) == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}

	return &ProductionOrder{
		ID:          uuid.New(),
		Status:      OrderOpened,
		OpenDate:    openDate,
		Description: description,
		BranchID:    branch,
		Items:       []*ProductionItem{},
		Materials:   []*ProductionMaterial{},
		Services:    []*ProductionService{},
	}, nil
}

func (o *ProductionOrder) StatusString() string {
	return o.Status.String()
}

// OrderNumber is the zero-padded human facing order number
func (o *ProductionOrder) OrderNumber() string {
	return fmt.Sprintf("%04d", o.Number)
}

// ResponsibleName returns "" when nobody is responsible
func (o *ProductionOrder) ResponsibleName() string {
	return o.Responsible
}

func (o *ProductionOrder) IsClosed() bool {
	return o.Status == OrderClosed
}

// CheckMutable rejects quantity changes on a closed order
func (o *ProductionOrder) CheckMutable() error {
	if o.IsClosed() {
		return fmt.Errorf("%w: order %s", ErrOrderClosed, o.OrderNumber())
	}
	return nil
}

func (o *ProductionOrder) requireStatus(action string, allowed ...OrderStatus) error {
	for _, status := range allowed {
		if o.Status == status {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s order %s in status %s", ErrInvalidTransition, action, o.OrderNumber(), o.Status)
}

// AddItem adds a finished product line. Only allowed while Opened.
func (o *ProductionOrder) AddItem(product *Product, quantity decimal.Decimal) (*ProductionItem, error) {
	if err := o.requireStatus("add items to", OrderOpened); err != nil {
		return nil, err
	}
	if err := RequirePositive(quantity); err != nil {
		return nil, err
	}
	if !product.IsStorable() {
		return nil, fmt.Errorf("%w: %s cannot be produced", ErrNotStorable, product.PartNumber)
	}

	item := &ProductionItem{
		ID:         uuid.New(),
		OrderID:    o.ID,
		PartNumber: product.PartNumber,
		Quantity:   quantity,
		Produced:   decimal.Zero,
		Lost:       decimal.Zero,
	}
	o.Items = append(o.Items, item)
	return item, nil
}

// RemoveItem detaches an item from the order and returns it
func (o *ProductionOrder) RemoveItem(itemID uuid.UUID) (*ProductionItem, error) {
	if err := o.requireStatus("remove items from", OrderOpened); err != nil {
		return nil, err
	}
	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			return item, nil
		}
	}
	return nil, fmt.Errorf("%w: item %s does not belong to order %s", ErrNotFound, itemID, o.OrderNumber())
}

// AddMaterial plans a raw material line. There is at most one line per
// product in an order.
func (o *ProductionOrder) AddMaterial(product *Product, needed decimal.Decimal) (*ProductionMaterial, error) {
	if err := o.requireStatus("add materials to", OrderOpened); err != nil {
		return nil, err
	}
	if err := RequirePositive(needed); err != nil {
		return nil, err
	}
	if !product.IsStorable() {
		return nil, fmt.Errorf("%w: %s cannot be used as material", ErrNotStorable, product.PartNumber)
	}
	if existing := o.MaterialFor(product.PartNumber); existing != nil {
		return nil, fmt.Errorf("%w: material %s already planned for order %s",
			ErrPrecondition, product.PartNumber, o.OrderNumber())
	}

	material := &ProductionMaterial{
		ID:         uuid.New(),
		OrderID:    o.ID,
		PartNumber: product.PartNumber,
		Needed:     needed,
		Allocated:  decimal.Zero,
		Consumed:   decimal.Zero,
		Lost:       decimal.Zero,
	}
	o.Materials = append(o.Materials, material)
	return material, nil
}

// AddService adds a service line
func (o *ProductionOrder) AddService(product *Product, quantity decimal.Decimal) (*ProductionService, error) {
	if err := o.requireStatus("add services to", OrderOpened); err != nil {
		return nil, err
	}
	if err := RequirePositive(quantity); err != nil {
		return nil, err
	}
	if product.Kind != ServiceProduct {
		return nil, fmt.Errorf("%w: %s is not a service", ErrPrecondition, product.PartNumber)
	}

	service := &ProductionService{
		ID:         uuid.New(),
		OrderID:    o.ID,
		PartNumber: product.PartNumber,
		Quantity:   quantity,
	}
	o.Services = append(o.Services, service)
	return service, nil
}

// RemoveService detaches a service line from the order and returns it
func (o *ProductionOrder) RemoveService(serviceID uuid.UUID) (*ProductionService, error) {
	if err := o.requireStatus("remove services from", OrderOpened); err != nil {
		return nil, err
	}
	for idx, service := range o.Services {
		if service.ID == serviceID {
			o.Services = append(o.Services[:idx], o.Services[idx+1:]...)
			return service, nil
		}
	}
	return nil, fmt.Errorf("%w: service %s does not belong to order %s", ErrNotFound, serviceID, o.OrderNumber())
}

// SetWaiting moves an Opened order to Waiting
func (o *ProductionOrder) SetWaiting() error {
	if err := o.requireStatus("set waiting", OrderOpened); err != nil {
		return err
	}
	o.Status = OrderWaiting
	return nil
}

// CheckCanStart reports whether StartProduction may run
func (o *ProductionOrder) CheckCanStart() error {
	return o.requireStatus("start", OrderOpened, OrderWaiting)
}

// MarkProducing sets the start date and moves to Producing. Material
// allocation is the caller's job and must happen in the same transaction.
func (o *ProductionOrder) MarkProducing(now time.Time) error {
	if err := o.CheckCanStart(); err != nil {
		return err
	}
	day := today(now)
	o.StartDate = &day
	o.Status = OrderProducing
	return nil
}

// TryFinalize closes a Producing order whose items are all completely
// produced. It reports whether the order was closed by this call; calling it
// again is a no-op.
func (o *ProductionOrder) TryFinalize(now time.Time) bool {
	if o.Status != OrderProducing {
		return false
	}
	for _, item := range o.Items {
		if !item.IsCompletelyProduced() {
			return false
		}
	}
	day := today(now)
	o.CloseDate = &day
	o.Status = OrderClosed
	return true
}

// Item finds an item of this order by id
func (o *ProductionOrder) Item(id uuid.UUID) (*ProductionItem, error) {
	for _, item := range o.Items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, fmt.Errorf("%w: item %s in order %s", ErrNotFound, id, o.OrderNumber())
}

// Material finds a material of this order by id
func (o *ProductionOrder) Material(id uuid.UUID) (*ProductionMaterial, error) {
	for _, material := range o.Materials {
		if material.ID == id {
			return material, nil
		}
	}
	return nil, fmt.Errorf("%w: material %s in order %s", ErrNotFound, id, o.OrderNumber())
}

// MaterialFor returns the material line for a product, or nil
func (o *ProductionOrder) MaterialFor(pn PartNumber) *ProductionMaterial {
	for _, material := range o.Materials {
		if material.PartNumber == pn {
			return material
		}
	}
	return nil
}

// MaterialIndex maps each raw material to its line in this order
func (o *ProductionOrder) MaterialIndex() map[PartNumber]*ProductionMaterial {
	index := make(map[PartNumber]*ProductionMaterial, len(o.Materials))
	for _, material := range o.Materials {
		index[material.PartNumber] = material
	}
	return index
}

// OrderSnapshot holds copies of every mutable field of an order and its
// item and material lines.
type OrderSnapshot struct {
	status    OrderStatus
	startDate *time.Time
	closeDate *time.Time
	items     map[uuid.UUID]ProductionItem
	materials map[uuid.UUID]ProductionMaterial
}

// Snapshot captures the order state so it can be restored after a rollback
func (o *ProductionOrder) Snapshot() *OrderSnapshot {
	snap := &OrderSnapshot{
		status:    o.Status,
		startDate: o.StartDate,
		closeDate: o.CloseDate,
		items:     make(map[uuid.UUID]ProductionItem, len(o.Items)),
		materials: make(map[uuid.UUID]ProductionMaterial, len(o.Materials)),
	}
	for _, item := range o.Items {
		snap.items[item.ID] = *item
	}
	for _, material := range o.Materials {
		snap.materials[material.ID] = *material
	}
	return snap
}

// Restore writes a snapshot back into the existing lines
func (o *ProductionOrder) Restore(snap *OrderSnapshot) {
	o.Status = snap.status
	o.StartDate = snap.startDate
	o.CloseDate = snap.closeDate
	for _, item := range o.Items {
		if saved, ok := snap.items[item.ID]; ok {
			*item = saved
		}
	}
	for _, material := range o.Materials {
		if saved, ok := snap.materials[material.ID]; ok {
			*material = saved
		}
	}
}

func today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
