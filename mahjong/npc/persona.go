package npc

// Persona defines a named NPC character. 补位 AI 从这里取不重样的名字。
type Persona struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Tagline   string  `json:"tagline"`
	AvatarKey string  `json:"avatarKey"`
	ThinkBias float64 `json:"thinkBias"` // 0.0–1.0: 出手快慢在 [min,max] 区间里的落点
}

// builtinPersonas 不配 JSON 文件时的兜底阵容。
var builtinPersonas = []*Persona{
	{ID: "laoma", Name: "老马", Tagline: "马踏连营", AvatarKey: "horse", ThinkBias: 0.2},
	{ID: "paoge", Name: "炮哥", Tagline: "隔山打牛", AvatarKey: "cannon", ThinkBias: 0.5},
	{ID: "xiaozu", Name: "小卒", Tagline: "过河不回头", AvatarKey: "pawn", ThinkBias: 0.8},
	{ID: "jushen", Name: "车神", Tagline: "横冲直撞", AvatarKey: "chariot", ThinkBias: 0.35},
	{ID: "shilao", Name: "士佬", Tagline: "稳坐中军帐", AvatarKey: "advisor", ThinkBias: 0.95},
}
