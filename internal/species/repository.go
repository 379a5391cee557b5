package species

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 表示视图中没有该ID
var ErrNotFound = errors.New("espécie não encontrada")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Species, error) {
	list := make([]Species, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*Species, error) {
	var s Species
	res := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &s, nil
}
