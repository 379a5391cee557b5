package user

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate 带有自定义 avatar 规则；validator.Validate 可安全并发使用
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("avatar", func(fl validator.FieldLevel) bool {
		return IsAvatar(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// SignupInput 是 POST /api/cadastro 的请求体
type SignupInput struct {
	Nome    string `json:"nome" form:"nome" validate:"required"`
	Apelido string `json:"apelido" form:"apelido" validate:"required"`
	Senha   string `json:"senha" form:"senha" validate:"required,min=4"`
	Avatar  string `json:"avatar" form:"avatar" validate:"omitempty,avatar"`
}

func (in *SignupInput) normalize() {
	in.Nome = strings.TrimSpace(in.Nome)
	in.Apelido = strings.TrimSpace(in.Apelido)
}

// LoginInput 是 POST /api/login 的请求体
type LoginInput struct {
	Apelido string `json:"apelido" form:"apelido" validate:"required"`
	Senha   string `json:"senha" form:"senha" validate:"required"`
}

// UpdateInput 是 PUT /api/perfil/:id 的请求体
type UpdateInput struct {
	Nome   string `json:"nome" form:"nome" validate:"required"`
	Avatar string `json:"avatar" form:"avatar" validate:"required,avatar"`
}

// failedTag 返回第一个未通过的规则名
func failedTag(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return errs[0].Tag()
	}
	return ""
}
