package gateway

import (
	"context"
	"strconv"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/shopspring/decimal"
)

// refundAPI is the slice of the Midtrans core API used for refunds.
type refundAPI interface {
	RefundTransaction(orderID string, req *coreapi.RefundReq) (*coreapi.RefundResponse, *midtrans.Error)
}

type MidtransGateway struct {
	api refundAPI
}

func NewMidtransGateway(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var client coreapi.Client
	client.New(serverKey, env)
	return &MidtransGateway{api: &client}
}

type midtransOutcome struct {
	resp *coreapi.RefundResponse
	err  *midtrans.Error
}

// Refund calls Midtrans on its own goroutine so ctx can bound the wait. A
// call abandoned on timeout may still land; the refund key makes a retry
// safe.
func (g *MidtransGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if req.Currency != "IDR" {
		return nil, Rejected("unsupported_currency", "midtrans refunds IDR only, got "+req.Currency)
	}
	if !req.Amount.Equal(req.Amount.Truncate(0)) {
		return nil, Rejected("invalid_amount", "midtrans refunds whole currency units only")
	}

	done := make(chan midtransOutcome, 1)
	go func() {
		resp, err := g.api.RefundTransaction(req.TransactionID, &coreapi.RefundReq{
			RefundKey: req.IdempotencyKey,
			Amount:    req.Amount.IntPart(),
			Reason:    req.Reason,
		})
		done <- midtransOutcome{resp: resp, err: err}
	}()

	var out midtransOutcome
	select {
	case out = <-done:
	case <-ctx.Done():
		return nil, Transient("timeout", "midtrans refund did not answer in time", ctx.Err())
	}

	if out.err != nil {
		return nil, classifyMidtransError(out.err.GetStatusCode(), out.err.GetMessage(), out.err)
	}
	if out.resp == nil {
		return nil, Transient("empty_response", "midtrans returned no body", nil)
	}

	code, _ := strconv.Atoi(out.resp.StatusCode)
	if code >= 300 {
		return nil, classifyMidtransError(code, out.resp.StatusMessage, nil)
	}

	amount, err := decimal.NewFromString(out.resp.RefundAmount)
	if err != nil {
		amount = decimal.Zero
	}

	return &RefundResult{
		RefundID:      out.resp.RefundKey,
		TransactionID: out.resp.TransactionID,
		Amount:        amount,
		Settled:       out.resp.TransactionStatus == "refund" || out.resp.TransactionStatus == "partial_refund",
		Raw: map[string]interface{}{
			"status_code":        out.resp.StatusCode,
			"status_message":     out.resp.StatusMessage,
			"transaction_status": out.resp.TransactionStatus,
			"refund_amount":      out.resp.RefundAmount,
		},
	}, nil
}

// classifyMidtransError treats 4xx as a definitive answer and everything
// else, including transport failures with no status, as retryable.
func classifyMidtransError(status int, message string, cause error) *Error {
	code := strconv.Itoa(status)
	if status >= 400 && status < 500 {
		return &Error{Code: code, Message: message, Permanent: true, Err: cause}
	}
	return &Error{Code: code, Message: message, Err: cause}
}
