package gamification

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
	"github.com/mundo-dos-mangues/mangues-backend/internal/user"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func fail(c *gin.Context, err error, label string) {
	_ = c.Error(apperror.Wrap(err, label))
	c.Abort()
}

// actionRequest 是 registro-acao 的请求体，dados 延迟到确定类型后再解码
type actionRequest struct {
	Tipo  string          `json:"tipo"`
	Dados json.RawMessage `json:"dados"`
}

// Catalog GET /api/conquistas
func (h *Handler) Catalog(c *gin.Context) {
	list, err := h.svc.Catalog(c.Request.Context())
	if err != nil {
		fail(c, err, "Erro ao buscar conquistas")
		return
	}
	c.JSON(http.StatusOK, list)
}

// RegisterAction POST /api/registro-acao
func (h *Handler) RegisterAction(c *gin.Context) {
	claims, ok := user.CurrentClaims(c)
	if !ok {
		fail(c, apperror.Unauthorized("Acesso negado. Token não fornecido."), "")
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperror.Validation(labelInvalidAction), "")
		return
	}
	action, err := DecodeAction(req.Tipo, req.Dados)
	if err != nil {
		var unknown *ErrUnknownKind
		if errors.As(err, &unknown) {
			fail(c, apperror.Validation(labelInvalidKind), "")
			return
		}
		fail(c, apperror.Validation(labelInvalidAction), "")
		return
	}

	p, err := h.svc.Register(c.Request.Context(), claims.ID, action)
	if err != nil {
		fail(c, err, "Erro ao registrar ação.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ação registrada!", "usuario": p})
}

// Ranking GET /api/ranking
func (h *Handler) Ranking(c *gin.Context) {
	list, err := h.svc.Ranking(c.Request.Context())
	if err != nil {
		fail(c, err, "Erro ao buscar ranking")
		return
	}
	c.JSON(http.StatusOK, list)
}
