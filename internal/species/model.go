package species

import "gorm.io/datatypes"

// Species 是 v_especies_completas 视图中的一行，adaptacoes 已聚合为JSON数组
type Species struct {
	ID             int64                       `gorm:"column:id" json:"id"`
	Nome           string                      `gorm:"column:nome" json:"nome"`
	NomeCientifico string                      `gorm:"column:nome_cientifico" json:"nome_cientifico"`
	Categoria      string                      `gorm:"column:categoria" json:"categoria"`
	Descricao      string                      `gorm:"column:descricao" json:"descricao"`
	Habitat        string                      `gorm:"column:habitat" json:"habitat"`
	Imagem         string                      `gorm:"column:imagem" json:"imagem"`
	Curiosidade    string                      `gorm:"column:curiosidade" json:"curiosidade"`
	Adaptacoes     datatypes.JSONSlice[string] `gorm:"column:adaptacoes" json:"adaptacoes"`
}

func (Species) TableName() string {
	return "v_especies_completas"
}
