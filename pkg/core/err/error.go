package errorc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"shortlink/pkg/core/consts"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var (
	enableFullStack = true
	stackBufferPool = sync.Pool{
		New: func() interface{} {
			return make([]byte, 4096)
		},
	}
)

type ErrorBuilder struct {
	entryName string
}

func NewErrorBuilder(entryName string) *ErrorBuilder {
	return &ErrorBuilder{entryName: entryName}
}

func (e *ErrorBuilder) New(msg string, err error) *Error {
	stack := getStack(2)
	stack.Msg = msg
	stack.Cause = err
	stack.Entry = e.entryName
	stack.ErrorCode = getErrCode(err)
	return stack
}

// New err or msg can nil
func New(msg string, err error) *Error {
	stack := getStack(2)
	stack.Msg = msg
	stack.Cause = err
	stack.ErrorCode = getErrCode(err)
	return stack
}

func (e *Error) WithTraceID(ctx context.Context) *Error {
	if ctx == nil {
		return e
	}
	if traceID, ok := ctx.Value(consts.TraceKey).(string); ok {
		e.TraceID = traceID
	}
	return e
}

func (e *Error) WithCode(code *ErrorCode) *Error {
	e.ErrorCode = code
	return e
}

func (e *Error) DB() *Error {
	if e.ErrorCode == ErrorCodeNotFound {
		return e
	}
	e.ErrorCode = ErrorCodeDB
	return e
}

func (e *Error) Third() *Error {
	e.ErrorCode = ErrorCodeThird
	return e
}

func (e *Error) ValidWithCtx() *Error {
	e.ErrorCode = ErrorCodeValid
	return e
}

func (e *Error) NoAuth() *Error {
	e.ErrorCode = ErrorCodeNoAuth
	return e
}

func (e *Error) Forbidden() *Error {
	e.ErrorCode = ErrorCodeForbidden
	return e
}

func (e *Error) NotFound() *Error {
	e.ErrorCode = ErrorCodeNotFound
	return e
}

func (e *Error) Conflict() *Error {
	e.ErrorCode = ErrorCodeConflict
	return e
}

func (e *Error) Gone() *Error {
	e.ErrorCode = ErrorCodeGone
	return e
}

func (e *Error) TooMany() *Error {
	e.ErrorCode = ErrorCodeTooManyRequests
	return e
}

func (e *Error) Unavailable() *Error {
	e.ErrorCode = ErrorCodeUnavailable
	return e
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// chain 收集错误链，并返回根因及其包装的原始错误
func (e *Error) chain() ([]*Error, *Error, error) {
	var errChain []*Error
	curr := e
	for {
		errChain = append(errChain, curr)
		cause, ok := curr.Cause.(*Error)
		if !ok {
			break
		}
		curr = cause
	}

	for i := len(errChain) - 1; i >= 0; i-- {
		if errChain[i].Cause != nil {
			if _, ok := errChain[i].Cause.(*Error); !ok {
				return errChain, errChain[i], errChain[i].Cause
			}
		}
	}
	root := errChain[len(errChain)-1]
	return errChain, root, root.Cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	errChain, rootCause, originalError := e.chain()

	var sb strings.Builder
	sb.WriteString("========================= Root Cause =========================\n")
	if originalError != nil {
		sb.WriteString(fmt.Sprintf("Error: %s\n", originalError.Error()))
	}
	if rootCause.FileName != "" {
		sb.WriteString(fmt.Sprintf("Location: %s:%d\n", rootCause.FileName, rootCause.Line))
	}
	if rootCause.Msg != "" {
		sb.WriteString(fmt.Sprintf("Message: %s\n", rootCause.Msg))
	}
	if rootCause.TraceID != "" {
		sb.WriteString(fmt.Sprintf("Trace ID: %s\n", rootCause.TraceID))
	}

	sb.WriteString("\n======================= Full Error Trace =======================\n")
	for i, err := range errChain {
		sb.WriteString(fmt.Sprintf("%d: ", i+1))
		if err.ErrorCode != nil {
			sb.WriteString(fmt.Sprintf("[%s] ", err.ErrorCode.String()))
		}
		sb.WriteString(err.Msg)
		if err.FileName != "" {
			sb.WriteString(fmt.Sprintf("\n   at %s:%d", err.FileName, err.Line))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("==============================================================\n")

	return sb.String()
}

// RootCause 根因的简短描述
func (e *Error) RootCause() string {
	if e == nil {
		return ""
	}

	_, rootCause, originalError := e.chain()

	var sb strings.Builder
	sb.WriteString(rootCause.Msg)
	if originalError != nil {
		sb.WriteString(fmt.Sprintf(": %v", originalError))
	}
	if rootCause.FileName != "" {
		sb.WriteString(fmt.Sprintf(" at %s:%d", rootCause.FileName, rootCause.Line))
	}
	return sb.String()
}

func (e *Error) ToLog(log *logrus.Entry, msgs ...string) *Error {
	if e == nil {
		return nil
	}

	errChain, rootCause, originalError := e.chain()

	fields := make(map[string]interface{})
	fields["root_cause_file"] = rootCause.FileName
	fields["root_cause_line"] = rootCause.Line
	fields["root_cause_func"] = rootCause.FuncName
	fields["root_cause_msg"] = rootCause.Msg
	if originalError != nil {
		fields["root_cause_original_error"] = originalError.Error()
	}
	if rootCause.ErrorCode != nil {
		fields["root_cause_error_code"] = rootCause.ErrorCode.String()
	}

	chain := make([]map[string]interface{}, 0, len(errChain))
	for _, err := range errChain {
		level := map[string]interface{}{
			"file": err.FileName,
			"line": err.Line,
			"func": err.FuncName,
			"msg":  err.Msg,
		}
		if err.ErrorCode != nil {
			level["code"] = err.ErrorCode.String()
		}
		// 只为最外层错误添加完整堆栈
		if err == e && enableFullStack {
			if stack := err.getFullStack(); stack != "" {
				level["stack_trace"] = stack
			}
		}
		chain = append(chain, level)
	}
	fields["error_chain"] = chain
	if e.TraceID != "" {
		fields["trace_id"] = e.TraceID
	}

	finalMsg := errChain[0].Msg
	if len(msgs) > 0 {
		finalMsg = strings.Join(msgs, ", ")
	}

	log.WithFields(fields).Error(finalMsg)
	return e
}

func getStack(num int) *Error {
	pc, file, line, ok := runtime.Caller(num)
	if !ok {
		return &Error{
			FileName: "<unknown>",
			FuncName: "<unknown>",
		}
	}

	funcName := "<unknown>"
	if details := runtime.FuncForPC(pc); details != nil {
		funcName = details.Name()
	}

	return &Error{
		FileName: file,
		Line:     line,
		FuncName: funcName,
	}
}

// getFullStack 延迟获取完整堆栈信息
func (e *Error) getFullStack() string {
	if e.Stack != "" || !enableFullStack {
		return e.Stack
	}

	buf := stackBufferPool.Get().([]byte)
	defer stackBufferPool.Put(buf)

	n := runtime.Stack(buf, false)
	e.Stack = string(buf[:n])
	return e.Stack
}

// SetStackTraceEnabled 控制是否启用完整堆栈跟踪
func SetStackTraceEnabled(enabled bool) {
	enableFullStack = enabled
}

var notfounds = []error{gorm.ErrRecordNotFound, redis.Nil, mongo.ErrNoDocuments}

func getErrCode(err error) *ErrorCode {
	if err == nil {
		return ErrorCodeUnknown
	}

	var e *Error
	if errors.As(err, &e) && e.ErrorCode != nil {
		return e.ErrorCode
	}

	for _, target := range notfounds {
		if errors.Is(err, target) {
			return ErrorCodeNotFound
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeUnavailable
	}

	return ErrorCodeUnknown
}

// Quick 不获取堆栈信息，适用于性能敏感场景
func Quick(msg string, err error) *Error {
	return &Error{
		Msg:       msg,
		Cause:     err,
		ErrorCode: getErrCode(err),
	}
}

func (e *ErrorBuilder) NotFound(msg string) *Error {
	return &Error{
		Msg:       msg,
		Entry:     e.entryName,
		ErrorCode: ErrorCodeNotFound,
	}
}

func ParseError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Quick(err.Error(), err)
}

// HasCode 错误链中是否存在指定错误码
func HasCode(err error, code *ErrorCode) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorCode == code
	}
	return false
}

func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	if HasCode(err, ErrorCodeNotFound) {
		return true
	}

	for _, target := range notfounds {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
