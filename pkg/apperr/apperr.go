package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifica o erro para mapeamento HTTP e para decisão de retry.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindState
	KindNotFound
	KindUpstream
	KindSignature
)

// Error é o erro tipado padrão da plataforma. Code é estável e legível por
// máquina; Details carrega os campos/valores ofensores para o cliente.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetail anexa um detalhe e retorna o próprio erro (encadeável).
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

func Validationf(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(code, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Statef(code, format string, args ...any) *Error {
	return &Error{Kind: KindState, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Upstreamf embrulha a causa original de falha de gateway/banco; a causa
// nunca é exposta na resposta HTTP, só no log.
func Upstreamf(code string, cause error, format string, args ...any) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

func Signaturef(code, format string, args ...any) *Error {
	return &Error{Kind: KindSignature, Code: code, Message: fmt.Sprintf(format, args...)}
}

// As extrai um *Error da cadeia, se houver.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// IsKind informa se err (ou algo na cadeia) tem o Kind dado.
func IsKind(err error, k Kind) bool {
	if e, ok := As(err); ok {
		return e.Kind == k
	}
	return false
}

// HTTPStatus mapeia o erro para status HTTP. Erros sem Kind viram 500.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation, KindSignature:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindState:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
