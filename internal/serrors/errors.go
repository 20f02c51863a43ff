// Package serrors provides errors with key/value context. Errors built here
// support errors.Is against both their sentinel and their cause, and render
// their context for zap when logged.
package serrors

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Error classes shared by the whole tool. Callers match them with errors.Is.
var (
	// ErrConfig marks a malformed topology, manifest or application config.
	ErrConfig = errors.New("configuration error")
	// ErrLookup marks an unknown node, host reference or IP.
	ErrLookup = errors.New("lookup error")
	// ErrProtocolParse marks a switch response that could not be understood.
	ErrProtocolParse = errors.New("protocol parse error")
	// ErrSink marks a failure of the channel to the switch.
	ErrSink = errors.New("sink communication error")
)

type ctxPair struct {
	Key   string
	Value any
}

type errorInfo struct {
	ctx   []ctxPair
	cause error
}

func mkErrorInfo(cause error, errCtx ...any) errorInfo {
	np := len(errCtx) / 2
	ctx := make([]ctxPair, np)
	for i := 0; i < np; i++ {
		ctx[i] = ctxPair{Key: fmt.Sprint(errCtx[2*i]), Value: errCtx[2*i+1]}
	}
	sort.SliceStable(ctx, func(a, b int) bool {
		return ctx[a].Key < ctx[b].Key
	})
	return errorInfo{ctx: ctx, cause: cause}
}

func (e errorInfo) error() string {
	var buf bytes.Buffer
	if len(e.ctx) != 0 {
		buf.WriteString(" {")
		for i, p := range e.ctx {
			fmt.Fprintf(&buf, "%s=%v", p.Key, p.Value)
			if i != len(e.ctx)-1 {
				buf.WriteString("; ")
			}
		}
		buf.WriteString("}")
	}
	if e.cause != nil {
		fmt.Fprintf(&buf, ": %s", e.cause)
	}
	return buf.String()
}

func (e errorInfo) marshalLogObject(enc zapcore.ObjectEncoder) error {
	if e.cause != nil {
		if m, ok := e.cause.(zapcore.ObjectMarshaler); ok {
			if err := enc.AddObject("cause", m); err != nil {
				return err
			}
		} else {
			enc.AddString("cause", e.cause.Error())
		}
	}
	for _, pair := range e.ctx {
		zap.Any(pair.Key, pair.Value).AddTo(enc)
	}
	return nil
}

type basicError struct {
	errorInfo
	msg string
}

func (e basicError) Error() string {
	return e.msg + e.errorInfo.error()
}

func (e basicError) Unwrap() error {
	return e.cause
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e basicError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.msg)
	return e.errorInfo.marshalLogObject(enc)
}

// New creates an error with the given message and context.
func New(msg string, errCtx ...any) error {
	return &basicError{errorInfo: mkErrorInfo(nil, errCtx...), msg: msg}
}

// Wrap returns an error with msg and context that wraps cause.
func Wrap(msg string, cause error, errCtx ...any) error {
	return basicError{errorInfo: mkErrorInfo(cause, errCtx...), msg: msg}
}

type joinedError struct {
	errorInfo
	error error
}

func (e joinedError) Error() string {
	return e.error.Error() + e.errorInfo.error()
}

func (e joinedError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.error}
	}
	return []error{e.error, e.cause}
}

// MarshalLogObject implements zapcore.ObjectMarshaler.
func (e joinedError) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("msg", e.error.Error())
	return e.errorInfo.marshalLogObject(enc)
}

// Join associates err (usually one of the sentinels above) with an optional
// cause and context. errors.Is(result, err) always holds, as does
// errors.Is(result, cause) when cause is non-nil.
func Join(err, cause error, errCtx ...any) error {
	if err == nil && cause == nil {
		return nil
	}
	return joinedError{errorInfo: mkErrorInfo(cause, errCtx...), error: err}
}

// List is a slice of errors.
type List []error

func (e List) Error() string {
	s := make([]string, 0, len(e))
	for _, err := range e {
		s = append(s, err.Error())
	}
	return fmt.Sprintf("[ %s ]", strings.Join(s, "; "))
}

// ToError returns nil for an empty list.
func (e List) ToError() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
