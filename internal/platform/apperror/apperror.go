package apperror

import (
	"errors"
	"net/http"
)

// Kind 是错误的分类，决定HTTP状态码
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// HTTPStatus 返回该分类对应的HTTP状态码
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error 是带分类和面向客户端短标签的错误。
// Label 会原样返回给客户端，Err 只在非生产环境下暴露。
type Error struct {
	Kind  Kind
	Label string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Label + ": " + e.Err.Error()
	}
	return e.Label
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(label string) *Error {
	return &Error{Kind: KindValidation, Label: label}
}

func Conflict(label string) *Error {
	return &Error{Kind: KindConflict, Label: label}
}

func Unauthorized(label string) *Error {
	return &Error{Kind: KindUnauthorized, Label: label}
}

func Forbidden(label string) *Error {
	return &Error{Kind: KindForbidden, Label: label}
}

func NotFound(label string) *Error {
	return &Error{Kind: KindNotFound, Label: label}
}

// Internal 包装一个底层错误（查询失败、事务失败等）
func Internal(label string, err error) *Error {
	return &Error{Kind: KindInternal, Label: label, Err: err}
}

// As 是 errors.As 的简写
func As(err error) (*Error, bool) {
	var appErr *Error
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// Wrap 保留已分类的错误；其他错误包装为带label的内部错误
func Wrap(err error, label string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Internal(label, err)
}
