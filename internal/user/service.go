package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
	"github.com/mundo-dos-mangues/mangues-backend/pkg/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 客户端可见的错误标签
const (
	labelSignupRequired = "Nome, apelido e senha são obrigatórios."
	labelPasswordShort  = "Senha deve ter no mínimo 4 caracteres."
	labelPasswordLong   = "Senha deve ter no máximo 72 bytes."
	labelAvatarInvalid  = "Avatar inválido."
	labelNicknameTaken  = "Este apelido já está em uso."
	labelLoginRequired  = "Apelido e senha são obrigatórios."
	labelBadCredentials = "Apelido ou senha incorretos."
	labelNotFound       = "Usuário não encontrado"
	labelForbidden      = "Acesso negado."
	labelInvalidData    = "Dados inválidos."
)

// maxPasswordBytes 是bcrypt能接受的最大输入长度
const maxPasswordBytes = 72

// LoginObserver 在每次成功登录、访问计数更新后被调用。
// 实现方不得让错误影响登录本身。
type LoginObserver interface {
	OnLogin(ctx context.Context, userID int64, visits int)
}

// AuthResult 是注册和登录的结果
type AuthResult struct {
	Token   string
	Profile *Profile
}

type Service struct {
	repo      *Repository
	issuer    *token.Issuer
	cost      int
	dummyHash []byte
	observer  LoginObserver
	log       *zap.Logger
}

// NewService 创建服务。dummyHash 用于未知昵称时的比较，使两种失败耗时一致。
func NewService(repo *Repository, issuer *token.Issuer, bcryptCost int, log *zap.Logger) (*Service, error) {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("manguezal"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("无法生成占位哈希: %w", err)
	}
	return &Service{
		repo:      repo,
		issuer:    issuer,
		cost:      bcryptCost,
		dummyHash: dummy,
		log:       log.Named("user"),
	}, nil
}

// SetLoginObserver 注入登录后的成就检查；gamification 依赖本包，因此在装配时反向注入
func (s *Service) SetLoginObserver(o LoginObserver) {
	s.observer = o
}

func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.normalize()
	if err := validate.Struct(in); err != nil {
		switch failedTag(err) {
		case "min":
			return nil, apperror.Validation(labelPasswordShort)
		case "avatar":
			return nil, apperror.Validation(labelAvatarInvalid)
		default:
			return nil, apperror.Validation(labelSignupRequired)
		}
	}
	// bcrypt只处理前72字节，更长的密码直接拒绝而不是静默截断
	if len(in.Senha) > maxPasswordBytes {
		return nil, apperror.Validation(labelPasswordLong)
	}
	if in.Avatar == "" {
		in.Avatar = DefaultAvatar
	}

	taken, err := s.repo.NicknameTaken(ctx, in.Apelido)
	if err != nil {
		return nil, fmt.Errorf("检查昵称失败: %w", err)
	}
	if taken {
		return nil, apperror.Conflict(labelNicknameTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Senha), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperror.Validation(labelPasswordLong)
	}
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	id, err := s.repo.Create(ctx, in.Nome, in.Apelido, string(hash), in.Avatar)
	if err != nil {
		// 并发注册同一昵称时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict(labelNicknameTaken)
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	s.log.Info("新用户注册", zap.Int64("user_id", id), zap.String("apelido", in.Apelido))

	return s.authenticate(ctx, id, in.Apelido)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Apelido = strings.TrimSpace(in.Apelido)
	if err := validate.Struct(in); err != nil {
		return nil, apperror.Validation(labelLoginRequired)
	}

	u, err := s.repo.FindByNickname(ctx, in.Apelido)
	if errors.Is(err, ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Senha))
		return nil, apperror.Unauthorized(labelBadCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Senha), []byte(in.Senha)); err != nil {
		return nil, apperror.Unauthorized(labelBadCredentials)
	}

	visits, err := s.repo.RecordVisit(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("更新访问记录失败: %w", err)
	}
	if s.observer != nil {
		s.observer.OnLogin(ctx, u.ID, visits)
	}

	return s.authenticate(ctx, u.ID, u.Apelido)
}

func (s *Service) authenticate(ctx context.Context, id int64, apelido string) (*AuthResult, error) {
	signed, err := s.issuer.Issue(id, apelido)
	if err != nil {
		return nil, err
	}
	p, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: signed, Profile: p}, nil
}

// Profile 返回完整资料；用户不存在时返回 NotFound
func (s *Service) Profile(ctx context.Context, id int64) (*Profile, error) {
	p, err := s.repo.Profile(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NotFound(labelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("读取用户资料失败: %w", err)
	}
	return p, nil
}

// UpdateProfile 只允许用户修改自己的资料
func (s *Service) UpdateProfile(ctx context.Context, actorID, id int64, in UpdateInput) (*Profile, error) {
	if actorID != id {
		return nil, apperror.Forbidden(labelForbidden)
	}
	in.Nome = strings.TrimSpace(in.Nome)
	if err := validate.Struct(in); err != nil {
		return nil, apperror.Validation(labelInvalidData)
	}

	err := s.repo.UpdateProfile(ctx, id, in.Nome, in.Avatar)
	if errors.Is(err, ErrNotFound) {
		return nil, apperror.NotFound(labelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("更新用户资料失败: %w", err)
	}
	return s.Profile(ctx, id)
}
