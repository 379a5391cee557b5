package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
	"go.uber.org/zap"
)

const (
	internalLabel   = "Algo deu errado no servidor!"
	internalMessage = "Erro interno"
	notFoundLabel   = "Endpoint não encontrado"
)

// ErrorRenderer 把处理器通过 c.Error 记录的错误渲染成统一的JSON。
// 内部错误在非生产环境下附带原始信息。
func ErrorRenderer(production bool, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		renderError(c, err, production, log)
	}
}

func renderError(c *gin.Context, err error, production bool, log *zap.Logger) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Internal(internalLabel, err)
	}

	if appErr.Kind != apperror.KindInternal {
		c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), gin.H{"error": appErr.Label})
		return
	}

	log.Error("请求处理失败",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(RequestIDKey)),
		zap.Error(err),
	)

	label := appErr.Label
	if label == "" {
		label = internalLabel
	}
	message := internalMessage
	if !production {
		message = err.Error()
		if appErr.Err != nil {
			message = appErr.Err.Error()
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": label, "message": message})
}

// Recovery 捕获处理器中的panic并按内部错误渲染
func Recovery(production bool, log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", recovered)
		}
		if errors.Is(err, http.ErrAbortHandler) {
			c.Abort()
			return
		}
		renderError(c, apperror.Internal(internalLabel, err), production, log)
	})
}

// NoRoute 处理所有未匹配的路由
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundLabel})
	}
}
