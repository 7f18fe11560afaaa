package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/vsinha/production/pkg/domain/entities"
)

// HistoryFilter narrows List. Zero values match everything.
type HistoryFilter struct {
	OrderID    uuid.UUID
	PartNumber entities.PartNumber
	Kind       *entities.HistoryKind
}

// HistoryRecorder is the append-only audit sink for production movements
type HistoryRecorder interface {
	Record(ctx context.Context, entry *entities.HistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]*entities.HistoryEntry, error)
}
