package response

type ResponseCode int

// 统一业务代码
const (
	Success ResponseCode = 100
)

// Response 通用成功响应（业务接口多数直接返回扁平结构，见各模块 types.go）
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Code    ResponseCode `json:"code"`
	Data    any          `json:"data,omitempty"`
}

// ErrorBody 错误响应，客户端只依赖 success 和 error 两个字段
type ErrorBody struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Code    ResponseCode `json:"code"`
}

type ResponseOptions func(*Response)

func WithMessage(message string) ResponseOptions {
	return func(r *Response) {
		r.Message = message
	}
}

func WithCode(code ResponseCode) ResponseOptions {
	return func(r *Response) {
		r.Code = code
	}
}

func WithData(data any) ResponseOptions {
	return func(r *Response) {
		r.Data = data
	}
}

func CustomResponse(opts ...ResponseOptions) Response {
	response := Response{Success: true, Code: Success}
	for _, opt := range opts {
		opt(&response)
	}
	return response
}

func SuccessResponse(data any) Response {
	return Response{
		Success: true,
		Message: "success",
		Code:    Success,
		Data:    data,
	}
}

func ErrorResponse(code ResponseCode, msg string) ErrorBody {
	return ErrorBody{
		Success: false,
		Error:   msg,
		Code:    code,
	}
}
