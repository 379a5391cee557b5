package threat

import "gorm.io/datatypes"

// Threat 是 v_ameacas_completas 视图中的一行
type Threat struct {
	ID        int64                       `gorm:"column:id" json:"id"`
	Nome      string                      `gorm:"column:nome" json:"nome"`
	Categoria string                      `gorm:"column:categoria" json:"categoria"`
	Descricao string                      `gorm:"column:descricao" json:"descricao"`
	Impacto   string                      `gorm:"column:impacto" json:"impacto"`
	Imagem    string                      `gorm:"column:imagem" json:"imagem"`
	Solucoes  datatypes.JSONSlice[string] `gorm:"column:solucoes" json:"solucoes"`
}

func (Threat) TableName() string {
	return "v_ameacas_completas"
}
