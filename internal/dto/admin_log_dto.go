package dto

import "time"

// --- Refund Desk Stats ---

type AdminDeskStats struct {
	PendingReviews           int            `json:"pending_reviews"`
	ApprovalsInFlight        int            `json:"approvals_in_flight"`
	UnresolvedReconciliation int            `json:"unresolved_reconciliation"`
	ReconciliationByKind     map[string]int `json:"reconciliation_by_kind"`
}

// --- System Log DTOs ---

type LogListResponse struct {
	Id        string    `json:"id"` // MD5 hash, not UUID
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}
