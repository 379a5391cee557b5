package threat

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("ameaça não encontrada")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context) ([]Threat, error) {
	list := make([]Threat, 0)
	err := r.db.WithContext(ctx).Order("id").Find(&list).Error
	return list, err
}

func (r *Repository) Get(ctx context.Context, id int64) (*Threat, error) {
	var t Threat
	res := r.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&t)
	switch {
	case res.Error != nil:
		return nil, res.Error
	case res.RowsAffected == 0:
		return nil, ErrNotFound
	}
	return &t, nil
}
