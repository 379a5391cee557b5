package threat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
)

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(apperror.Internal("Não foi possível buscar as ameaças.", err))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) Get(c *gin.Context) {
	notFound := apperror.NotFound("Ameaça não encontrada")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(notFound)
		c.Abort()
		return
	}

	t, err := h.repo.Get(c.Request.Context(), id)
	if errors.Is(err, ErrNotFound) {
		_ = c.Error(notFound)
		c.Abort()
		return
	}
	if err != nil {
		_ = c.Error(apperror.Internal("Não foi possível buscar a ameaça.", err))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, t)
}
