// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"news-rag-client/internal/service"
	"news-rag-client/pkg/ragapi"

	"github.com/gin-gonic/gin"
)

// respond 以 {code, message, data} 的统一格式写出响应。
func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"code": status, "message": message, "data": data})
}

func ok(c *gin.Context, data any) {
	respond(c, http.StatusOK, "success", data)
}

// statusFor 把业务错误映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrSendInFlight):
		return http.StatusConflict
	case ragapi.IsTransport(err):
		return http.StatusServiceUnavailable
	case ragapi.IsServer(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
