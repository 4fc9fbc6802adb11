package nats

import (
	"testing"

	"booking-settlement-be/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "settlement.REFUND_COMPLETED", Subject(events.TypeRefundCompleted))
	assert.Equal(t, "settlement.RECONCILIATION_REQUIRED", Subject(events.TypeReconciliationRequired))
}
