package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Simulator settles every refund immediately and answers repeated keys with
// the first result. It backs the memory storage driver and local runs
// without provider credentials.
type Simulator struct {
	mu      sync.Mutex
	results map[string]*RefundResult
}

func NewSimulator() *Simulator {
	return &Simulator{results: make(map[string]*RefundResult)}
}

func (s *Simulator) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, Transient("timeout", "simulated refund cancelled", err)
	}
	if !req.Amount.IsPositive() {
		return nil, Rejected("invalid_amount", fmt.Sprintf("refund amount %s must be positive", req.Amount))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.results[req.IdempotencyKey]; ok {
		return res, nil
	}
	res := &RefundResult{
		RefundID:      req.IdempotencyKey,
		TransactionID: "sim-" + uuid.NewString(),
		Amount:        req.Amount,
		Settled:       true,
		Raw:           map[string]interface{}{"simulated": true},
	}
	s.results[req.IdempotencyKey] = res
	return res, nil
}
