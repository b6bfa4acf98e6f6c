package errorc

import (
	"fmt"
)

type Error struct {
	*ErrorCode
	Msg      string
	Cause    error
	Stack    string `json:"-"`
	TraceID  string
	Entry    string `json:"-"`
	FileName string `json:"-"`
	Line     int    `json:"-"`
	FuncName string `json:"-"`
}

type ErrorCode struct {
	Code int
	Name string
}

func (c *ErrorCode) String() string {
	return fmt.Sprintf("%d: %s", c.Code, c.Name)
}

// HTTPStatus 返回对外的HTTP状态码，存储层和三方错误统一为500
func (c *ErrorCode) HTTPStatus() int {
	switch {
	case c == nil:
		return 500
	case c == ErrorCodeDB, c == ErrorCodeThird:
		return 500
	case c.Code < 400 || c.Code > 599:
		return 500
	}
	return c.Code
}

var (
	ErrorCodeUnknown         *ErrorCode = &ErrorCode{500, "Unknown"}
	ErrorCodeDB              *ErrorCode = &ErrorCode{501, "DB"}
	ErrorCodeThird           *ErrorCode = &ErrorCode{502, "Third"}
	ErrorCodeValid           *ErrorCode = &ErrorCode{400, "ValidWithCtx"}
	ErrorCodeNoAuth          *ErrorCode = &ErrorCode{401, "Unauthenticated"}
	ErrorCodeForbidden       *ErrorCode = &ErrorCode{403, "Forbidden"}
	ErrorCodeNotFound        *ErrorCode = &ErrorCode{404, "NotFound"}
	ErrorCodeConflict        *ErrorCode = &ErrorCode{409, "Conflict"}
	ErrorCodeGone            *ErrorCode = &ErrorCode{410, "Gone"}
	ErrorCodeTooManyRequests *ErrorCode = &ErrorCode{429, "TooManyRequests"}
	ErrorCodeUnavailable     *ErrorCode = &ErrorCode{503, "Unavailable"}
	ErrorCodeInternal        *ErrorCode = &ErrorCode{503, "InternalError"}
)
