package gamification

import (
	"context"
	"errors"
	"fmt"

	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/config"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/metrics"
	"github.com/mundo-dos-mangues/mangues-backend/internal/user"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	labelInvalidKind   = "Tipo de ação inválido"
	labelInvalidAction = "Dados inválidos para a ação."
)

// ProfileReader 返回动作登记后的最新资料
type ProfileReader interface {
	Profile(ctx context.Context, id int64) (*user.Profile, error)
}

type Service struct {
	repo     *Repository
	profiles ProfileReader
	cfg      config.GamificationConfig
	log      *zap.Logger
}

func NewService(repo *Repository, profiles ProfileReader, cfg config.GamificationConfig, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		cfg:      cfg,
		log:      log.Named("gamification"),
	}
}

func (s *Service) Catalog(ctx context.Context) ([]Achievement, error) {
	return s.repo.Catalog(ctx)
}

func (s *Service) Ranking(ctx context.Context) ([]RankingEntry, error) {
	return s.repo.Ranking(ctx)
}

// Grant 授予成就并累加积分。同一用户同一成就最多授予一次，积分也只加一次。
func (s *Service) Grant(ctx context.Context, userID int64, achievementID string) (GrantResult, error) {
	res, err := s.repo.Grant(ctx, userID, achievementID)
	if err != nil {
		return 0, fmt.Errorf("授予成就失败: %w", err)
	}
	return res, nil
}

// Award 是 Grant 的“尽力而为”版本：失败只记录日志和指标，不影响调用方
func (s *Service) Award(ctx context.Context, userID int64, achievementID string) {
	res, err := s.Grant(ctx, userID, achievementID)
	if err != nil {
		metrics.ObserveGrant(achievementID, metrics.GrantFailed)
		s.log.Warn("授予成就失败",
			zap.Int64("user_id", userID),
			zap.String("achievement", achievementID),
			zap.Error(err))
		return
	}

	metrics.ObserveGrant(achievementID, res.String())
	switch res {
	case Granted:
		s.log.Info("授予成就", zap.Int64("user_id", userID), zap.String("achievement", achievementID))
	case Unknown:
		s.log.Warn("成就不存在", zap.String("achievement", achievementID))
	}
}

// OnLogin 实现 user.LoginObserver
func (s *Service) OnLogin(ctx context.Context, userID int64, visits int) {
	if s.cfg.FrequentVisitorThreshold > 0 && visits >= s.cfg.FrequentVisitorThreshold {
		s.Award(ctx, userID, AchievementFrequentVisitor)
	}
}

// Register 登记一次用户动作并返回最新资料
func (s *Service) Register(ctx context.Context, userID int64, action Action) (*user.Profile, error) {
	if err := s.apply(ctx, userID, action); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, apperror.Validation(labelInvalidAction)
		}
		return nil, fmt.Errorf("登记动作 %s 失败: %w", action.Kind(), err)
	}
	return s.profiles.Profile(ctx, userID)
}

func (s *Service) apply(ctx context.Context, userID int64, action Action) error {
	switch a := action.(type) {
	case SpeciesViewed:
		total, err := s.repo.RecordSpeciesView(ctx, userID, a.EspecieID)
		if err != nil {
			return err
		}
		if total == 1 {
			s.Award(ctx, userID, AchievementFirstSpecies)
		}
		return nil
	case ThreatViewed:
		return s.repo.RecordThreatView(ctx, userID, a.AmeacaID)
	case GameCompleted:
		return s.repo.RecordGameCompletion(ctx, userID, a)
	case ThreatAction:
		return s.repo.RecordThreatAction(ctx, userID, a)
	default:
		// Action 是封闭的，走到这里说明新增了类型却没有处理
		panic(fmt.Sprintf("gamification: 未处理的动作类型 %T", action))
	}
}
