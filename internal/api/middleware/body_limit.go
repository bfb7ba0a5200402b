package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"uni-timetable/backend/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 声明的 Content-Length 超限时直接拒绝；未声明长度的请求由 MaxBytesReader 截断，
// 绑定失败后由 Handler 返回参数错误
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
