package serverutils

// BaseResponse is the envelope every endpoint answers with.
type BaseResponse[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) BaseResponse[T] {
	return BaseResponse[T]{Code: 200, Message: message, Data: data}
}

func ErrorResponse(code int, message string) BaseResponse[any] {
	return BaseResponse[any]{Code: code, Message: message}
}
