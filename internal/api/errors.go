package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind 远端调用失败的分类，业务层按 Kind 分支而不是匹配错误文本
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindRequestRejected
	KindTransport
	KindNotFound
	KindConflict
	KindUnauthorized
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRequestRejected:
		return "request_rejected"
	case KindTransport:
		return "transport"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Code    string
	Message string
	Err     error

	// FromServer Message 来自服务端返回的 GraphQL errors
	FromServer bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" && e.Status != 0 {
		msg = fmt.Sprintf("status %d", e.Status)
	}
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf 非 *Error 一律视为 KindUnknown
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ServerMessage 服务端返回的第一条 GraphQL 错误信息
func ServerMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.FromServer {
		return ae.Message
	}
	return ""
}

func NewValidationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

func newTransportError(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// 业务错误码，含义明确，优先于其它判断
var domainCodes = map[string]Kind{
	"NOT_FOUND":        KindNotFound,
	"NOT_ENROLLED":     KindNotFound,
	"CONFLICT":         KindConflict,
	"ALREADY_ENROLLED": KindConflict,
	"DUPLICATE_KEY":    KindConflict,
}

// 通用错误码，后端常把报名冲突、未报名也挂在这些码下面
var genericCodes = map[string]Kind{
	"BAD_USER_INPUT":            KindRequestRejected,
	"BAD_REQUEST":               KindRequestRejected,
	"GRAPHQL_VALIDATION_FAILED": KindRequestRejected,
	"GRAPHQL_PARSE_FAILED":      KindRequestRejected,
	"UNAUTHENTICATED":           KindUnauthorized,
	"FORBIDDEN":                 KindUnauthorized,
}

// 报名相关的错误文本，覆盖通用错误码和 4xx 状态
var domainPhrases = []struct {
	needle string
	kind   Kind
}{
	{"not enrolled", KindNotFound},
	{"not found", KindNotFound},
	{"already enrolled", KindConflict},
	{"duplicate key", KindConflict},
	{"duplicate entry", KindConflict},
}

func kindFromStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindRequestRejected
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 500:
		return KindTransport
	case status >= 400:
		return KindRequestRejected
	}
	return KindUnknown
}

func kindFromPhrase(message string) Kind {
	lower := strings.ToLower(message)
	for _, p := range domainPhrases {
		if strings.Contains(lower, p.needle) {
			return p.kind
		}
	}
	return KindUnknown
}

// classify 顺序：业务错误码 -> 报名相关文本（非 5xx）-> 通用错误码 -> HTTP 状态 -> 其余 GraphQL 错误
func classify(op string, status int, gqlErrs []graphQLError) *Error {
	e := &Error{Op: op, Status: status}

	var first *graphQLError
	if len(gqlErrs) > 0 {
		first = &gqlErrs[0]
		e.Message = first.Message
		e.FromServer = true
		e.Code = first.code()
	}
	code := strings.ToUpper(e.Code)

	if k, ok := domainCodes[code]; ok {
		e.Kind = k
		return e
	}

	if first != nil && status < 500 {
		if k := kindFromPhrase(first.Message); k != KindUnknown {
			e.Kind = k
			return e
		}
	}

	if k, ok := genericCodes[code]; ok {
		e.Kind = k
		return e
	}

	if status < 200 || status >= 300 {
		if k := kindFromStatus(status); k != KindUnknown {
			e.Kind = k
			return e
		}
	}

	if first != nil {
		// Apollo 客户端把 HTTP 400 包装成文本
		if strings.Contains(first.Message, "400") {
			e.Kind = KindRequestRejected
			return e
		}
		e.Kind = KindServer
		return e
	}

	e.Kind = KindUnknown
	return e
}
