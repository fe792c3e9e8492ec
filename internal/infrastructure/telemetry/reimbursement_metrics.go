package telemetry

import (
	"context"

	"github.com/reimburse/backend/internal/domain/reimbursement"
	"github.com/reimburse/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const reimbursementMeterName = "reimburse-backend/reimbursement"

// Amount buckets in won
var amountBuckets = []float64{10_000, 50_000, 100_000, 300_000, 500_000, 1_000_000, 3_000_000, 10_000_000}

// ReimbursementMetrics counts request lifecycle transitions and settlement amounts.
// It subscribes to the event bus as a catch-all handler.
type ReimbursementMetrics struct {
	submitted        *Counter
	approved         *Counter
	rejected         *Counter
	cancelled        *Counter
	settled          *Counter
	settlements      *Counter
	requestAmount    *Histogram
	settlementAmount *Histogram
}

// NewReimbursementMetrics registers the instruments on meter
func NewReimbursementMetrics(meter metric.Meter) (*ReimbursementMetrics, error) {
	m := &ReimbursementMetrics{}
	var err error
	counters := []struct {
		dst  **Counter
		name string
		desc string
	}{
		{&m.submitted, "reimbursement_requests_submitted_total", "Payment requests submitted"},
		{&m.approved, "reimbursement_requests_approved_total", "Payment requests approved"},
		{&m.rejected, "reimbursement_requests_rejected_total", "Payment requests rejected"},
		{&m.cancelled, "reimbursement_requests_cancelled_total", "Payment requests cancelled"},
		{&m.settled, "reimbursement_requests_settled_total", "Payment requests moved into a settlement"},
		{&m.settlements, "reimbursement_settlements_created_total", "Settlements created"},
	}
	for _, c := range counters {
		if *c.dst, err = NewCounter(meter, c.name, c.desc, "{request}"); err != nil {
			return nil, err
		}
	}
	if m.requestAmount, err = NewHistogram(meter, "reimbursement_request_amount",
		"Total amount of submitted requests", "KRW", amountBuckets...); err != nil {
		return nil, err
	}
	if m.settlementAmount, err = NewHistogram(meter, "reimbursement_settlement_amount",
		"Total amount of created settlements", "KRW", amountBuckets...); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes returns nil so the handler receives every event
func (m *ReimbursementMetrics) EventTypes() []string {
	return nil
}

// Handle records the event
func (m *ReimbursementMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *reimbursement.RequestSubmittedEvent:
		committee := attribute.String("committee", string(e.Committee))
		m.submitted.Inc(ctx, committee, attribute.Bool("resubmission", e.OriginalRequestID != nil))
		m.requestAmount.Record(ctx, float64(e.TotalAmount), committee)
	case *reimbursement.RequestApprovedEvent:
		m.approved.Inc(ctx)
	case *reimbursement.RequestRejectedEvent:
		m.rejected.Inc(ctx)
	case *reimbursement.RequestCancelledEvent:
		m.cancelled.Inc(ctx)
	case *reimbursement.RequestSettledEvent:
		m.settled.Inc(ctx)
	case *reimbursement.SettlementCreatedEvent:
		m.settlements.Inc(ctx)
		m.settlementAmount.Record(ctx, float64(e.TotalAmount),
			attribute.Int("request_count", len(e.RequestIDs)))
	}
	return nil
}

var _ shared.EventHandler = (*ReimbursementMetrics)(nil)
