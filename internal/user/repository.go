package user

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 表示用户不存在
var ErrNotFound = errors.New("usuário não encontrado")

// Repository 封装所有对 usuarios 及其互动表的查询
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// NicknameTaken 不区分大小写地检查昵称是否已被使用
func (r *Repository) NicknameTaken(ctx context.Context, apelido string) (bool, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Raw("SELECT id FROM usuarios WHERE LOWER(apelido) = LOWER(?) LIMIT 1", apelido).
		Scan(&ids).Error
	return len(ids) > 0, err
}

// Create 插入新用户并返回ID。昵称冲突时返回 gorm.ErrDuplicatedKey。
func (r *Repository) Create(ctx context.Context, nome, apelido, senhaHash, avatar string) (int64, error) {
	var id int64
	err := r.db.WithContext(ctx).
		Raw("INSERT INTO usuarios (nome, apelido, senha, avatar) VALUES (?, ?, ?, ?) RETURNING id",
			nome, apelido, senhaHash, avatar).
		Scan(&id).Error
	return id, err
}

// FindByNickname 不区分大小写地按昵称查找用户
func (r *Repository) FindByNickname(ctx context.Context, apelido string) (*User, error) {
	var u User
	res := r.db.WithContext(ctx).
		Raw("SELECT * FROM usuarios WHERE LOWER(apelido) = LOWER(?) LIMIT 1", apelido).
		Scan(&u)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &u, nil
}

// RecordVisit 更新最后访问时间并把访问次数加一，返回新的访问次数
func (r *Repository) RecordVisit(ctx context.Context, id int64) (int, error) {
	var visitas []int
	err := r.db.WithContext(ctx).
		Raw("UPDATE usuarios SET ultimo_acesso = CURRENT_TIMESTAMP, visitas = visitas + 1 WHERE id = ? RETURNING visitas", id).
		Scan(&visitas).Error
	if err != nil {
		return 0, err
	}
	if len(visitas) == 0 {
		return 0, ErrNotFound
	}
	return visitas[0], nil
}

// UpdateProfile 修改昵称以外的可编辑字段
func (r *Repository) UpdateProfile(ctx context.Context, id int64, nome, avatar string) error {
	res := r.db.WithContext(ctx).
		Exec("UPDATE usuarios SET nome = ?, avatar = ? WHERE id = ?", nome, avatar, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Profile 通过五次独立读取组装完整资料
func (r *Repository) Profile(ctx context.Context, id int64) (*Profile, error) {
	db := r.db.WithContext(ctx)

	var p Profile
	res := db.Raw(`SELECT id, nome, apelido, avatar, data_criacao, ultimo_acesso, total_pontos, visitas
		FROM usuarios WHERE id = ?`, id).Scan(&p)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	p.Conquistas = make([]Achievement, 0)
	if err := db.Raw(`SELECT c.* FROM conquistas c
		JOIN usuario_conquistas uc ON c.id = uc.conquista_id
		WHERE uc.usuario_id = ? ORDER BY uc.data_conquista DESC`, id).Scan(&p.Conquistas).Error; err != nil {
		return nil, err
	}

	p.Estatisticas = Statistics{
		EspeciesVisualizadas: make([]int64, 0),
		AmeacasVisualizadas:  make([]int64, 0),
		AcoesAmeacas:         make([]ThreatAction, 0),
	}
	if err := db.Raw("SELECT especie_id FROM especies_visualizadas WHERE usuario_id = ?", id).
		Scan(&p.Estatisticas.EspeciesVisualizadas).Error; err != nil {
		return nil, err
	}
	if err := db.Raw("SELECT ameaca_id FROM ameacas_visualizadas WHERE usuario_id = ?", id).
		Scan(&p.Estatisticas.AmeacasVisualizadas).Error; err != nil {
		return nil, err
	}
	if err := db.Raw("SELECT ameaca_id, acao_index FROM acoes_ameacas WHERE usuario_id = ?", id).
		Scan(&p.Estatisticas.AcoesAmeacas).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
