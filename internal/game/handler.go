package game

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/config"
)

const loadLabel = "Não foi possível carregar os dados para o jogo."

type Handler struct {
	svc *Service
	cfg config.GameConfig
}

func NewHandler(svc *Service, cfg config.GameConfig) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// MemoryCards GET /api/jogo-memoria?limit=N，N为对数
func (h *Handler) MemoryCards(c *gin.Context) {
	pairs := parseLimit(c.Query("limit"), h.cfg.MemoryDefaultPairs, h.cfg.MaxLimit)
	cards, err := h.svc.MemoryCards(c.Request.Context(), pairs)
	if err != nil {
		_ = c.Error(apperror.Internal(loadLabel, err))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, cards)
}

// Connections GET /api/conexoes?limit=N
func (h *Handler) Connections(c *gin.Context) {
	n := parseLimit(c.Query("limit"), h.cfg.ConnectionsDefault, h.cfg.MaxLimit)
	items, err := h.svc.Connections(c.Request.Context(), n)
	if err != nil {
		_ = c.Error(apperror.Internal("Não foi possível carregar os dados para o Jogo de Conexões.", err))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, items)
}

// parseLimit 缺失、非数字或非正数时使用默认值，并限制在max以内
func parseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}
