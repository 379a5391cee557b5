package gamification

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Kind 是 registro-acao 请求中 tipo 字段的规范值
type Kind string

const (
	KindSpeciesViewed Kind = "especie_vista"
	KindThreatViewed  Kind = "ameaca_vista"
	KindGameCompleted Kind = "jogo_completado"
	KindThreatAction  Kind = "acao_ameaca"
)

// Kinds 是全部动作类型。新增类型时必须同时加入 decoders，否则进程启动即panic。
var Kinds = []Kind{KindSpeciesViewed, KindThreatViewed, KindGameCompleted, KindThreatAction}

// aliases 兼容英文的类型名
var aliases = map[string]Kind{
	"species_viewed": KindSpeciesViewed,
	"threat_viewed":  KindThreatViewed,
	"game_completed": KindGameCompleted,
	"threat_action":  KindThreatAction,
}

// Action 是封闭的动作联合类型，只有本包内的四个结构体实现它
type Action interface {
	Kind() Kind
	sealed()
}

type SpeciesViewed struct {
	EspecieID int64 `json:"especieId" validate:"required"`
}

type ThreatViewed struct {
	AmeacaID int64 `json:"ameacaId" validate:"required"`
}

type GameCompleted struct {
	TipoJogo    string `json:"tipoJogo" validate:"required"`
	Dificuldade string `json:"dificuldade"`
	Pontuacao   int    `json:"pontuacao"`
}

type ThreatAction struct {
	AmeacaID  int64 `json:"ameacaId" validate:"required"`
	AcaoIndex int   `json:"acaoIndex" validate:"gte=0"`
}

func (SpeciesViewed) Kind() Kind { return KindSpeciesViewed }
func (ThreatViewed) Kind() Kind  { return KindThreatViewed }
func (GameCompleted) Kind() Kind { return KindGameCompleted }
func (ThreatAction) Kind() Kind  { return KindThreatAction }

func (SpeciesViewed) sealed() {}
func (ThreatViewed) sealed()  {}
func (GameCompleted) sealed() {}
func (ThreatAction) sealed()  {}

type decoder func(json.RawMessage) (Action, error)

func decodeAs[T Action](raw json.RawMessage) (Action, error) {
	var a T
	if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, err
		}
	}
	if err := validate.Struct(a); err != nil {
		return nil, err
	}
	return a, nil
}

var decoders = map[Kind]decoder{
	KindSpeciesViewed: decodeAs[SpeciesViewed],
	KindThreatViewed:  decodeAs[ThreatViewed],
	KindGameCompleted: decodeAs[GameCompleted],
	KindThreatAction:  decodeAs[ThreatAction],
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	if err := checkDecoders(Kinds, decoders); err != nil {
		panic(err)
	}
}

// checkDecoders 保证每个动作类型都有解码器
func checkDecoders(kinds []Kind, registry map[Kind]decoder) error {
	for _, k := range kinds {
		if registry[k] == nil {
			return fmt.Errorf("gamification: 动作类型 %q 没有注册解码器", k)
		}
	}
	if len(registry) != len(kinds) {
		return fmt.Errorf("gamification: 解码器数量(%d)与动作类型数量(%d)不一致", len(registry), len(kinds))
	}
	return nil
}

// ParseKind 解析 tipo 字段，接受规范值和英文别名
func ParseKind(tipo string) (Kind, bool) {
	k := Kind(tipo)
	if _, ok := decoders[k]; ok {
		return k, true
	}
	k, ok := aliases[tipo]
	return k, ok
}

// ErrUnknownKind 表示 tipo 不在封闭集合中
type ErrUnknownKind struct {
	Tipo string
}

func (e *ErrUnknownKind) Error() string {
	return fmt.Sprintf("tipo de ação desconhecido: %q", e.Tipo)
}

// DecodeAction 把 {tipo, dados} 解码为具体的动作
func DecodeAction(tipo string, dados json.RawMessage) (Action, error) {
	k, ok := ParseKind(tipo)
	if !ok {
		return nil, &ErrUnknownKind{Tipo: tipo}
	}
	return decoders[k](dados)
}
