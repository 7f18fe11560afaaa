package production

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vsinha/production/pkg/application/dto"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

// OrderReport reads an order together with the branch balance of each of its
// materials and, when withHistory is set, its movement history.
func (s *Service) OrderReport(ctx context.Context, orderID uuid.UUID, withHistory bool) (*dto.OrderReport, error) {
	var report *dto.OrderReport
	err := s.store.Transaction(ctx, func(tx repositories.Tx) error {
		order, err := tx.Orders().Get(ctx, orderID)
		if err != nil {
			return err
		}
		stock := make(map[entities.PartNumber]decimal.Decimal, len(order.Materials))
		for _, m := range order.Materials {
			balance, err := tx.Stock().Balance(ctx, m.PartNumber, order.BranchID)
			if err != nil {
				return err
			}
			stock[m.PartNumber] = balance
		}
		var history []*entities.HistoryEntry
		if withHistory {
			history, err = tx.History().List(ctx, repositories.HistoryFilter{OrderID: order.ID})
			if err != nil {
				return err
			}
		}
		report = dto.NewOrderReport(order, stock, history)
		return nil
	})
	return report, err
}
