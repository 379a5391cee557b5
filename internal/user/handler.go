package user

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
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

// Signup POST /api/cadastro
func (h *Handler) Signup(c *gin.Context) {
	var in SignupInput
	if err := c.ShouldBind(&in); err != nil {
		fail(c, apperror.Validation(labelSignupRequired), "")
		return
	}
	res, err := h.svc.Signup(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "Erro ao criar conta.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Conta criada com sucesso!",
		"token":   res.Token,
		"usuario": res.Profile,
	})
}

// Login POST /api/login
func (h *Handler) Login(c *gin.Context) {
	var in LoginInput
	if err := c.ShouldBind(&in); err != nil {
		fail(c, apperror.Validation(labelLoginRequired), "")
		return
	}
	res, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		fail(c, err, "Erro ao fazer login.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Bem-vindo de volta, %s!", res.Profile.Apelido),
		"token":   res.Token,
		"usuario": res.Profile,
	})
}

// GetProfile GET /api/perfil/:id，公开读取
func (h *Handler) GetProfile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, apperror.NotFound(labelNotFound), "")
		return
	}
	p, err := h.svc.Profile(c.Request.Context(), id)
	if err != nil {
		fail(c, err, "Erro ao buscar perfil")
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile PUT /api/perfil/:id，需要令牌且只能修改自己
func (h *Handler) UpdateProfile(c *gin.Context) {
	claims, ok := CurrentClaims(c)
	if !ok {
		fail(c, apperror.Unauthorized("Acesso negado. Token não fornecido."), "")
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, apperror.Validation(labelInvalidData), "")
		return
	}

	// 请求体无法解析时按空输入处理，先由服务做权限检查
	var in UpdateInput
	if err := c.ShouldBind(&in); err != nil {
		in = UpdateInput{}
	}
	p, err := h.svc.UpdateProfile(c.Request.Context(), claims.ID, id, in)
	if err != nil {
		fail(c, err, "Erro ao atualizar perfil.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Perfil atualizado!", "usuario": p})
}

// Avatars GET /api/avatars
func (h *Handler) Avatars(c *gin.Context) {
	c.JSON(http.StatusOK, Avatars())
}
