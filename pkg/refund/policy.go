package refund

// Route is the processing path picked for an eligible cancellation.
type Route string

const (
	RouteAutomatic    Route = "automatic"
	RouteManualReview Route = "manual_review"
)

// Policy decides between automatic settlement and operator review.
type Policy struct{}

func NewPolicy() Policy {
	return Policy{}
}

// Route sends only free cancellations (no cancellation-fee tier reduction)
// with a positive payout down the automatic path. The processing fee does not
// count as a reduction here.
func (Policy) Route(calc Calculation) Route {
	if calc.IsEligible && calc.FinalRefundAmount > 0 && calc.CancellationFee == 0 {
		return RouteAutomatic
	}
	return RouteManualReview
}
