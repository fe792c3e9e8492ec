package reimbursement

import (
	"context"

	"github.com/reimburse/backend/internal/domain/shared"
	"go.uber.org/zap"
)

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// publishEvents hands the collected events of committed aggregates to the bus.
// The write already succeeded, so a publish failure is only logged.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, sources ...eventSource) {
	var events []shared.DomainEvent
	for _, src := range sources {
		events = append(events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.String("first_type", events[0].EventType()),
			zap.Error(err))
	}
}

func toFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	return shared.Filter{Page: page, PageSize: pageSize, OrderBy: orderBy, OrderDir: orderDir}.Normalize()
}
