package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"uni-timetable/backend/config"
	"uni-timetable/backend/internal/api/handler"
	"uni-timetable/backend/internal/api/middleware"
	"uni-timetable/backend/internal/metrics"
	"uni-timetable/backend/pkg/jwt"
	"uni-timetable/backend/pkg/redis"
)

// 单个请求体上限，自动排课的 course_ids 是最大的请求体
const maxBodyBytes = 1 << 20

// Deps 路由依赖；Redis 与指标均可为空
type Deps struct {
	Config    *config.Config
	Handler   *handler.Handler
	JWT       *jwt.Manager
	Redis     *redis.Client
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	cfg, h := d.Config, d.Handler

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	if d.Collector != nil {
		r.Use(middleware.Metrics(d.Collector))
	}
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── 指标 ──
	if cfg.Metrics.Enabled && d.Gatherer != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// ── API v1（全部需要认证） ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(d.JWT, d.Redis, d.Logger))
	{
		// 教师可用性
		professors := v1.Group("/professors")
		{
			professors.GET("/:id/availability", h.Availability.Get)
			professors.PUT("/:id/availability", h.Availability.Set) // admin 或本人（Service 层鉴权）
		}

		// 临时预留
		proposeLimit := middleware.RateLimit(d.Redis,
			cfg.Scheduler.ProposeRateLimit, cfg.Scheduler.ProposeRateWindow, d.Logger)
		holds := v1.Group("/holds")
		{
			holds.POST("", proposeLimit, h.Hold.Propose)
			holds.GET("", h.Hold.List)
			holds.GET("/:id", h.Hold.Get)
			holds.POST("/:id/commit", h.Hold.Commit)
			holds.POST("/:id/cancel", h.Hold.Cancel)
			holds.POST("/:id/extend", h.Hold.Extend)
		}

		// 排课记录
		attributions := v1.Group("/attributions")
		{
			attributions.GET("", h.Attribution.List)
			attributions.GET("/:id", h.Attribution.Get)
			attributions.DELETE("/:id", middleware.RoleAuth(jwt.RoleAdmin), h.Attribution.Revert)
		}

		// 自动排课与查询
		v1.POST("/assignments/auto", middleware.RoleAuth(jwt.RoleAdmin), h.Assignment.RunAutomatic)
		v1.GET("/free-slots", h.Assignment.FreeSlots)

		// 导出
		v1.GET("/export/timetable", h.Export.ExportTimetable)
	}

	return r
}
