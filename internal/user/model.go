package user

import "time"

// DefaultAvatar 是未指定头像时使用的字形
const DefaultAvatar = "🦀"

// avatars 是允许的头像集合，顺序即 /api/avatars 的返回顺序
var avatars = []string{"🦀", "🦢", "🌳", "🐋", "🦩", "🐦", "🦪", "🦐", "🌿", "🐬", "🐤", "🐙", "🐊", "🦋", "🐟"}

// Avatars 返回头像列表的副本
func Avatars() []string {
	return append([]string(nil), avatars...)
}

// IsAvatar 判断glyph是否在允许的集合中
func IsAvatar(glyph string) bool {
	for _, a := range avatars {
		if a == glyph {
			return true
		}
	}
	return false
}

// User 是 usuarios 表中的一行，只在登录时读取完整记录（含密码哈希）
type User struct {
	ID           int64     `gorm:"column:id"`
	Nome         string    `gorm:"column:nome"`
	Apelido      string    `gorm:"column:apelido"`
	Senha        string    `gorm:"column:senha"`
	Avatar       string    `gorm:"column:avatar"`
	DataCriacao  time.Time `gorm:"column:data_criacao"`
	UltimoAcesso time.Time `gorm:"column:ultimo_acesso"`
	TotalPontos  int       `gorm:"column:total_pontos"`
	Visitas      int       `gorm:"column:visitas"`
}

// Achievement 是 conquistas 表中的一行
type Achievement struct {
	ID        string `gorm:"column:id" json:"id"`
	Nome      string `gorm:"column:nome" json:"nome"`
	Descricao string `gorm:"column:descricao" json:"descricao"`
	Icone     string `gorm:"column:icone" json:"icone"`
	Pontos    int    `gorm:"column:pontos" json:"pontos"`
}

// ThreatAction 记录用户针对某个威胁选择的行动序号
type ThreatAction struct {
	AmeacaID  int64 `gorm:"column:ameaca_id" json:"ameaca_id"`
	AcaoIndex int   `gorm:"column:acao_index" json:"acao_index"`
}

// Statistics 是用户的互动记录
type Statistics struct {
	EspeciesVisualizadas []int64        `json:"especies_visualizadas"`
	AmeacasVisualizadas  []int64        `json:"ameacas_visualizadas"`
	AcoesAmeacas         []ThreatAction `json:"acoes_ameacas"`
}

// Profile 是对外返回的完整用户资料，不含密码哈希
type Profile struct {
	ID           int64         `gorm:"column:id" json:"id"`
	Nome         string        `gorm:"column:nome" json:"nome"`
	Apelido      string        `gorm:"column:apelido" json:"apelido"`
	Avatar       string        `gorm:"column:avatar" json:"avatar"`
	DataCriacao  time.Time     `gorm:"column:data_criacao" json:"data_criacao"`
	UltimoAcesso time.Time     `gorm:"column:ultimo_acesso" json:"ultimo_acesso"`
	TotalPontos  int           `gorm:"column:total_pontos" json:"total_pontos"`
	Visitas      int           `gorm:"column:visitas" json:"visitas"`
	Conquistas   []Achievement `gorm:"-" json:"conquistas"`
	Estatisticas Statistics    `gorm:"-" json:"estatisticas"`
}
