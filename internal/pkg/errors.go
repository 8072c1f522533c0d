package pkg

import (
	"errors"
	"net/http"
)

// 错误分类，handler 按分类映射状态码
var (
	ErrValidation      = errors.New("validation error")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage error")
	ErrAuth            = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
)

// Error 携带分类和面向用户的消息
type Error struct {
	kinds []error
	msg   string
	cause error
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return e.kinds
	}
	return append(append([]error{}, e.kinds...), e.cause)
}

func newError(msg string, cause error, kinds ...error) error {
	return &Error{kinds: kinds, msg: msg, cause: cause}
}

func Validation(msg string) error { return newError(msg, nil, ErrValidation) }

// InvalidArgument 标识符格式错误，同时属于 ValidationError
func InvalidArgument(msg string) error {
	return newError(msg, nil, ErrInvalidArgument, ErrValidation)
}

func NotFound(msg string) error  { return newError(msg, nil, ErrNotFound) }
func Conflict(msg string) error  { return newError(msg, nil, ErrConflict) }
func Auth(msg string) error      { return newError(msg, nil, ErrAuth) }
func Forbidden(msg string) error { return newError(msg, nil, ErrForbidden) }

func Storage(msg string, cause error) error { return newError(msg, cause, ErrStorage) }

// HTTPStatus 错误分类 -> HTTP 状态码
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsClassified 是否属于已知分类（未分类的错误不把原始信息返回给客户端）
func IsClassified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
