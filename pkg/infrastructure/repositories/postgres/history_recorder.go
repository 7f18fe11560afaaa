package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

type historyRecorder struct {
	db *gorm.DB
}

func (h historyRecorder) Record(ctx context.Context, entry *entities.HistoryEntry) error {
	return h.db.WithContext(ctx).Create(entry).Error
}

func (h historyRecorder) List(ctx context.Context, filter repositories.HistoryFilter) ([]*entities.HistoryEntry, error) {
	query := h.db.WithContext(ctx).Order("recorded_at, id")
	if filter.OrderID != uuid.Nil {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.PartNumber != "" {
		query = query.Where("part_number = ?", filter.PartNumber)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	var entries []*entities.HistoryEntry
	err := query.Find(&entries).Error
	return entries, err
}
