package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver HTTP 请求指标上报，由 metrics.Collector 实现
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics 请求计数与耗时中间件
// 以路由模板（如 /api/v1/holds/:id）作为标签，未匹配路由记为 "unmatched"
func Metrics(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
