package gamification

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

const rankingSize = 10

// errAlreadyGranted 使事务回滚
var errAlreadyGranted = errors.New("conquista já concedida")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Catalog(ctx context.Context) ([]Achievement, error) {
	list := make([]Achievement, 0)
	err := r.db.WithContext(ctx).Raw("SELECT * FROM conquistas ORDER BY pontos DESC").Scan(&list).Error
	return list, err
}

// Grant 在一个事务里完成存在性检查、读取分值、插入关联行和累加积分。
// 并发授予时唯一约束让后到的插入影响0行，事务回滚，积分没有变化。
func (r *Repository) Grant(ctx context.Context, userID int64, achievementID string) (GrantResult, error) {
	result := Granted
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []int64
		if err := tx.Raw("SELECT id FROM usuario_conquistas WHERE usuario_id = ? AND conquista_id = ?",
			userID, achievementID).Scan(&owned).Error; err != nil {
			return err
		}
		if len(owned) > 0 {
			result = AlreadyOwned
			return nil
		}

		var pontos []int
		if err := tx.Raw("SELECT pontos FROM conquistas WHERE id = ?", achievementID).Scan(&pontos).Error; err != nil {
			return err
		}
		if len(pontos) == 0 {
			result = Unknown
			return nil
		}

		res := tx.Exec(`INSERT INTO usuario_conquistas (usuario_id, conquista_id) VALUES (?, ?)
			ON CONFLICT (usuario_id, conquista_id) DO NOTHING`, userID, achievementID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyGranted
		}
		return tx.Exec("UPDATE usuarios SET total_pontos = total_pontos + ? WHERE id = ?", pontos[0], userID).Error
	})
	if errors.Is(err, errAlreadyGranted) {
		return AlreadyOwned, nil
	}
	if err != nil {
		return 0, err
	}
	return result, nil
}

// RecordSpeciesView 幂等地记录物种浏览，返回该用户已浏览的物种总数
func (r *Repository) RecordSpeciesView(ctx context.Context, userID, especieID int64) (int64, error) {
	db := r.db.WithContext(ctx)
	if err := db.Exec(`INSERT INTO especies_visualizadas (usuario_id, especie_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING`, userID, especieID).Error; err != nil {
		return 0, err
	}
	var total int64
	err := db.Raw("SELECT COUNT(*) AS total FROM especies_visualizadas WHERE usuario_id = ?", userID).Scan(&total).Error
	return total, err
}

func (r *Repository) RecordThreatView(ctx context.Context, userID, ameacaID int64) error {
	return r.db.WithContext(ctx).Exec(`INSERT INTO ameacas_visualizadas (usuario_id, ameaca_id) VALUES (?, ?)
		ON CONFLICT DO NOTHING`, userID, ameacaID).Error
}

// RecordGameCompletion 每次完成都追加一行，没有唯一约束
func (r *Repository) RecordGameCompletion(ctx context.Context, userID int64, g GameCompleted) error {
	return r.db.WithContext(ctx).Exec(`INSERT INTO estatisticas_jogos (usuario_id, tipo_jogo, dificuldade, pontuacao)
		VALUES (?, ?, ?, ?)`, userID, g.TipoJogo, g.Dificuldade, g.Pontuacao).Error
}

func (r *Repository) RecordThreatAction(ctx context.Context, userID int64, a ThreatAction) error {
	return r.db.WithContext(ctx).Exec(`INSERT INTO acoes_ameacas (usuario_id, ameaca_id, acao_index) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, userID, a.AmeacaID, a.AcaoIndex).Error
}

// Ranking 按积分、成就数降序返回前十名，计数每次请求实时计算
func (r *Repository) Ranking(ctx context.Context) ([]RankingEntry, error) {
	list := make([]RankingEntry, 0, rankingSize)
	err := r.db.WithContext(ctx).Raw(`SELECT id, nome, apelido, avatar, total_pontos,
		(SELECT COUNT(*) FROM usuario_conquistas WHERE usuario_id = usuarios.id) AS total_conquistas,
		(SELECT COUNT(*) FROM estatisticas_jogos WHERE usuario_id = usuarios.id) AS total_jogos
		FROM usuarios ORDER BY total_pontos DESC, total_conquistas DESC LIMIT ?`, rankingSize).
		Scan(&list).Error
	return list, err
}
