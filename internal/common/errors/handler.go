package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler turns panics and errors attached to a gin context into
// StandardError responses so no request can take the process down.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Middleware returns the gin middleware. It must be registered first.
func (h *ErrorHandler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				stdErr := NewInternalError(fmt.Sprintf("panic: %v", recovered))
				h.logger.Error("Recovered from panic", map[string]interface{}{
					"path":     c.Request.URL.Path,
					"method":   c.Request.Method,
					"panic":    fmt.Sprintf("%v", recovered),
					"stack":    string(debug.Stack()),
					"duration": time.Since(start).String(),
				})
				h.respond(c, stdErr)
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		stdErr := Normalize(c.Errors.Last().Err)
		h.logError(c, stdErr)
		h.respond(c, stdErr)
	}
}

func (h *ErrorHandler) respond(c *gin.Context, stdErr *StandardError) {
	c.JSON(HTTPStatus(stdErr.Code), gin.H{
		"success": false,
		"error": gin.H{
			"code":    stdErr.Code,
			"message": stdErr.Message,
		},
	})
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError) {
	status := HTTPStatus(stdErr.Code)
	if status < http.StatusInternalServerError {
		return
	}
	h.logger.Error("Request failed", map[string]interface{}{
		"path":          c.Request.URL.Path,
		"method":        c.Request.Method,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
