// Package httputil provides shared HTTP response helpers.
package httputil

import "github.com/gin-gonic/gin"

// RespondError writes a standardized JSON error response and aborts the request.
func RespondError(c *gin.Context, status int, code, message string) {
	var requestID string
	if rid, exists := c.Get("request_id"); exists {
		if s, ok := rid.(string); ok {
			requestID = s
		}
	}

	resp := map[string]any{
		"code":    code,
		"message": message,
	}

	if requestID != "" {
		resp["request_id"] = requestID
	}

	c.AbortWithStatusJSON(status, resp)
}

// RespondQuotaError writes the 413 response for quota rejections, carrying
// the byte figures alongside the rendered message.
func RespondQuotaError(c *gin.Context, status int, message string, used, incoming, available, limit int64) {
	c.AbortWithStatusJSON(status, map[string]any{
		"code":            "quota_exceeded",
		"message":         message,
		"used_bytes":      used,
		"incoming_bytes":  incoming,
		"available_bytes": available,
		"limit_bytes":     limit,
	})
}
