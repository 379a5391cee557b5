package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/game"
	"github.com/mundo-dos-mangues/mangues-backend/internal/gamification"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/metrics"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/middleware"
	"github.com/mundo-dos-mangues/mangues-backend/internal/species"
	"github.com/mundo-dos-mangues/mangues-backend/internal/threat"
	"github.com/mundo-dos-mangues/mangues-backend/internal/user"
	"github.com/mundo-dos-mangues/mangues-backend/pkg/token"
)

// Handlers 汇总所有需要挂到路由上的处理器
type Handlers struct {
	Species      *species.Handler
	Threat       *threat.Handler
	Game         *game.Handler
	User         *user.Handler
	Gamification *gamification.Handler
	Health       gin.HandlerFunc
}

// SetupRoutes 注册项目的所有API路由。
// apiMiddleware 只作用于 /api 组（限流），/metrics 不受影响。
func SetupRoutes(router *gin.Engine, h Handlers, issuer *token.Issuer, apiMiddleware ...gin.HandlerFunc) {
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api", apiMiddleware...)
	{
		// 物种与威胁目录
		api.GET("/especies", h.Species.List)
		api.GET("/especies/:id", h.Species.Get)
		api.GET("/ameacas", h.Threat.List)
		api.GET("/ameacas/:id", h.Threat.Get)

		// 小游戏
		api.GET("/jogo-memoria", h.Game.MemoryCards)
		api.GET("/conexoes", h.Game.Connections)

		// 用户
		api.POST("/cadastro", h.User.Signup)
		api.POST("/login", h.User.Login)
		api.GET("/perfil/:id", h.User.GetProfile)
		api.PUT("/perfil/:id", user.RequireToken(issuer), h.User.UpdateProfile)
		api.GET("/avatars", h.User.Avatars)

		// 成就与排行
		api.POST("/registro-acao", user.RequireToken(issuer), h.Gamification.RegisterAction)
		api.GET("/conquistas", h.Gamification.Catalog)
		api.GET("/ranking", h.Gamification.Ranking)

		api.GET("/health", h.Health)
	}

	router.NoRoute(middleware.NoRoute())
}
