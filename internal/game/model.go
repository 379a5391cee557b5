package game

// Card 是记忆游戏中的一张牌。每个物种产生两张，uniqueId 分别以 -a / -b 结尾。
type Card struct {
	ID        int64  `gorm:"column:id" json:"id"`
	Nome      string `gorm:"column:nome" json:"nome"`
	Imagem    string `gorm:"column:imagem" json:"imagem"`
	Categoria string `gorm:"column:categoria" json:"categoria"`
	UniqueID  string `gorm:"-" json:"uniqueId"`
}

// Connection 是连线游戏的一项：物种和它ID最小的适应性（“超能力”）
type Connection struct {
	ID         int64  `gorm:"column:id" json:"id"`
	Nome       string `gorm:"column:nome" json:"nome"`
	Imagem     string `gorm:"column:imagem" json:"imagem"`
	Categoria  string `gorm:"column:categoria" json:"categoria"`
	Superpoder string `gorm:"column:superpoder" json:"superpoder"`
}
