package gamification

import "github.com/mundo-dos-mangues/mangues-backend/internal/user"

// 由规则授予的成就ID，必须存在于 database.sql 的种子数据中
const (
	AchievementFirstSpecies    = "primeira_especie"
	AchievementFrequentVisitor = "visitante_frequente"
)

// Achievement 与用户资料中的成就是同一张表
type Achievement = user.Achievement

// RankingEntry 是排行榜中的一行
type RankingEntry struct {
	ID              int64  `gorm:"column:id" json:"id"`
	Nome            string `gorm:"column:nome" json:"nome"`
	Apelido         string `gorm:"column:apelido" json:"apelido"`
	Avatar          string `gorm:"column:avatar" json:"avatar"`
	TotalPontos     int    `gorm:"column:total_pontos" json:"total_pontos"`
	TotalConquistas int    `gorm:"column:total_conquistas" json:"total_conquistas"`
	TotalJogos      int    `gorm:"column:total_jogos" json:"total_jogos"`
}

// GrantResult 是一次成就授予的结果
type GrantResult int

const (
	Granted GrantResult = iota
	AlreadyOwned
	Unknown
)

func (r GrantResult) String() string {
	switch r {
	case Granted:
		return "granted"
	case AlreadyOwned:
		return "already_owned"
	case Unknown:
		return "unknown"
	default:
		return "invalid"
	}
}
