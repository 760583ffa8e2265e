package storage

import (
	"context"
	"sync"

	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

const defaultAlertCapacity = 200

// MemoryAlertRepository хранит последние уведомления в кольцевом буфере.
type MemoryAlertRepository struct {
	mu     sync.Mutex
	alerts []*entity.Alert
	next   int
	full   bool
}

// NewMemoryAlertRepository создаёт буфер на capacity записей
func NewMemoryAlertRepository(capacity int) *MemoryAlertRepository {
	if capacity <= 0 {
		capacity = defaultAlertCapacity
	}
	return &MemoryAlertRepository{alerts: make([]*entity.Alert, capacity)}
}

func (r *MemoryAlertRepository) Save(ctx context.Context, alert *entity.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.alerts[r.next] = alert
	r.next = (r.next + 1) % len(r.alerts)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// Recent возвращает до limit записей, начиная с самой новой.
func (r *MemoryAlertRepository) Recent(ctx context.Context, limit int) ([]*entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.alerts)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]*entity.Alert, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (r.next - i + len(r.alerts)) % len(r.alerts)
		out = append(out, r.alerts[idx])
	}
	return out, nil
}

var _ port.AlertRepository = (*MemoryAlertRepository)(nil)
