package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/mundo-dos-mangues/mangues-backend/pkg/sample"
	"go.uber.org/zap"
)

// Service 在服务层做均匀无放回抽样，避免数据库端 ORDER BY RANDOM() 的全表排序
type Service struct {
	repo *Repository
	log  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService 创建服务。rng不是并发安全的，由Service内部加锁使用。
func NewService(repo *Repository, rng *rand.Rand, log *zap.Logger) *Service {
	return &Service{repo: repo, rng: rng, log: log.Named("game")}
}

// MemoryCards 抽取pairs个物种，每个复制成两张牌后洗牌
func (s *Service) MemoryCards(ctx context.Context, pairs int) ([]Card, error) {
	candidates, err := s.repo.MemoryCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询记忆游戏候选物种失败: %w", err)
	}
	ids := s.pick(candidates, pairs)
	if len(ids) < pairs {
		s.log.Warn("可用物种不足", zap.Int("requested", pairs), zap.Int("found", len(ids)))
	}

	rows, err := s.repo.MemoryCards(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("加载记忆游戏牌面失败: %w", err)
	}

	cards := make([]Card, 0, 2*len(rows))
	for _, row := range rows {
		a, b := row, row
		a.UniqueID = fmt.Sprintf("%d-a", row.ID)
		b.UniqueID = fmt.Sprintf("%d-b", row.ID)
		cards = append(cards, a, b)
	}

	s.mu.Lock()
	sample.Shuffle(s.rng, cards)
	s.mu.Unlock()
	return cards, nil
}

// Connections 抽取n个物种及其“超能力”，顺序随机
func (s *Service) Connections(ctx context.Context, n int) ([]Connection, error) {
	candidates, err := s.repo.ConnectionCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("查询连线游戏候选物种失败: %w", err)
	}
	ids := s.pick(candidates, n)
	if len(ids) < n {
		s.log.Warn("可用连线不足", zap.Int("requested", n), zap.Int("found", len(ids)))
	}

	rows, err := s.repo.Connections(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("加载连线游戏数据失败: %w", err)
	}
	return orderBy(rows, ids, func(c Connection) int64 { return c.ID }), nil
}

func (s *Service) pick(candidates []int64, k int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sample.Pick(s.rng, candidates, k)
}

// orderBy 按ids的顺序重排rows；IN查询不保证返回顺序
func orderBy[T any](rows []T, ids []int64, key func(T) int64) []T {
	pos := make(map[int64]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	slots := make([]*T, len(ids))
	for i := range rows {
		if p, ok := pos[key(rows[i])]; ok {
			slots[p] = &rows[i]
		}
	}
	ordered := make([]T, 0, len(rows))
	for _, row := range slots {
		if row != nil {
			ordered = append(ordered, *row)
		}
	}
	return ordered
}
