package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vsinha/production/pkg/domain/entities"
	"github.com/vsinha/production/pkg/domain/repositories"
)

type historyRecorder struct {
	tx *tx
}

func (h historyRecorder) Record(_ context.Context, entry *entities.HistoryEntry) error {
	s := h.tx.store
	size := len(s.history)
	h.tx.record(func() { s.history = s.history[:size] })
	s.history = append(s.history, *entry)
	return nil
}

func (h historyRecorder) List(_ context.Context, filter repositories.HistoryFilter) ([]*entities.HistoryEntry, error) {
	var entries []*entities.HistoryEntry
	for i := range h.tx.store.history {
		entry := h.tx.store.history[i]
		if filter.OrderID != uuid.Nil && entry.OrderID != filter.OrderID {
			continue
		}
		if filter.PartNumber != "" && entry.PartNumber != filter.PartNumber {
			continue
		}
		if filter.Kind != nil && entry.Kind != *filter.Kind {
			continue
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
