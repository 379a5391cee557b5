package species

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
)

const (
	notFoundLabel = "Espécie não encontrada"
	listLabel     = "Não foi possível buscar as espécies."
	getLabel      = "Não foi possível buscar a espécie."
)

// Handler 提供物种目录的只读接口
type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List GET /api/especies
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(apperror.Internal(listLabel, err))
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get GET /api/especies/:id，非数字ID与不存在的ID一样返回404
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperror.NotFound(notFoundLabel))
		c.Abort()
		return
	}

	s, err := h.repo.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			err = apperror.NotFound(notFoundLabel)
		} else {
			err = apperror.Internal(getLabel, err)
		}
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, s)
}
