package ragapi

import (
	"context"
	"errors"
	"fmt"
	"net"
)

const (
	connectivityHint = "Unable to connect to server. Please check your connection."
	timeoutHint      = "The server took too long to respond."
	canceledHint     = "The request was cancelled."
)

// TransportError 表示请求没有得到服务端响应，例如网络不可达、连接被拒绝或超时。
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.hint())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout 报告请求是否因超时失败。
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

func (e *TransportError) hint() string {
	switch {
	case e.Timeout():
		return timeoutHint
	case errors.Is(e.Err, context.Canceled):
		return canceledHint
	default:
		return connectivityHint
	}
}

// ServerError 表示服务端返回了结构化的失败结果。
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsTransport 报告 err 是否为传输层失败。
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsServer 报告 err 是否为服务端返回的错误。
func IsServer(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
