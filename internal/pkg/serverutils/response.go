package serverutils

type BaseResponse[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{
		Success: true,
		Code:    200,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{
		Success: false,
		Code:    code,
		Message: message,
	}
}

// KindErrorResponse is an error body that also names the failure kind and,
// for eligibility rejections, the calculator's reason.
func KindErrorResponse(code int, kind, reason, message string) BaseResponse[any] {
	res := ErrorResponse(code, message)
	res.Kind = kind
	res.Reason = reason
	return res
}
