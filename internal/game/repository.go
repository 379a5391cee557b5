package game

import (
	"context"

	"gorm.io/gorm"
)

func withImage(col string) string {
	return col + " IS NOT NULL AND " + col + " <> ''"
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// MemoryCandidates 返回所有有图片的物种ID
func (r *Repository) MemoryCandidates(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	err := r.db.WithContext(ctx).Table("especies").Where(withImage("imagem")).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// MemoryCards 按ID加载牌面数据，返回顺序不保证
func (r *Repository) MemoryCards(ctx context.Context, ids []int64) ([]Card, error) {
	cards := make([]Card, 0, len(ids))
	if len(ids) == 0 {
		return cards, nil
	}
	err := r.db.WithContext(ctx).Table("especies").
		Select("id", "nome", "imagem", "categoria").
		Where("id IN ?", ids).
		Find(&cards).Error
	return cards, err
}

// ConnectionCandidates 返回有图片且至少有一条适应性的物种ID
func (r *Repository) ConnectionCandidates(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0)
	err := r.db.WithContext(ctx).Table("especies e").
		Where(withImage("e.imagem")).
		Where("EXISTS (SELECT 1 FROM adaptacoes a WHERE a.especie_id = e.id)").
		Order("e.id").
		Pluck("e.id", &ids).Error
	return ids, err
}

// Connections 按ID加载连线数据，每个物种取ID最小的适应性
func (r *Repository) Connections(ctx context.Context, ids []int64) ([]Connection, error) {
	items := make([]Connection, 0, len(ids))
	if len(ids) == 0 {
		return items, nil
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT e.id, e.nome, e.imagem, e.categoria, a.adaptacao AS superpoder
		FROM especies e
		JOIN adaptacoes a ON a.especie_id = e.id
		WHERE e.id IN ?
		  AND a.id IN (SELECT MIN(id) FROM adaptacoes GROUP BY especie_id)`, ids).
		Scan(&items).Error
	return items, err
}
