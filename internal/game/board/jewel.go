package board

import "fmt"

// JewelType 宝石类型
type JewelType int

// 宝石类型定义
const (
	// 空位（被消除后等待补充）
	Empty JewelType = 0

	// 普通宝石 (1-6)
	Blue   JewelType = 1 // 蓝
	Red    JewelType = 2 // 红
	Orange JewelType = 3 // 橙
	Green  JewelType = 4 // 绿
	Purple JewelType = 5 // 紫
	Brown  JewelType = 6 // 棕

	// 技能宝石 (7-12)，每种对应一个普通宝石
	Vampire    JewelType = 7  // 吸血
	CritStrike JewelType = 8  // 暴击
	Stun       JewelType = 9  // 眩晕
	Shield     JewelType = 10 // 护盾
	Poison     JewelType = 11 // 中毒
	Explosion  JewelType = 12 // 爆炸
)

// RegularTypeCount 普通宝石种类数
const RegularTypeCount = 6

// JewelInfo 宝石信息
type JewelInfo struct {
	ID           JewelType `json:"id"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"` // empty, regular, spell
	Color        string    `json:"color"`
	Parent       JewelType `json:"parent"`         // 技能宝石对应的普通宝石
	MatchesToGet int       `json:"matches_to_get"` // 合成技能宝石所需的连消数量
	IsSpell      bool      `json:"is_spell"`
}

var jewelInfos = map[JewelType]*JewelInfo{
	Empty:      {ID: Empty, Name: "空位", Kind: "empty"},
	Blue:       {ID: Blue, Name: "蓝宝石", Kind: "regular", Color: "blue", Parent: Blue},
	Red:        {ID: Red, Name: "红宝石", Kind: "regular", Color: "red", Parent: Red},
	Orange:     {ID: Orange, Name: "橙宝石", Kind: "regular", Color: "orange", Parent: Orange},
	Green:      {ID: Green, Name: "绿宝石", Kind: "regular", Color: "green", Parent: Green},
	Purple:     {ID: Purple, Name: "紫宝石", Kind: "regular", Color: "purple", Parent: Purple},
	Brown:      {ID: Brown, Name: "棕宝石", Kind: "regular", Color: "brown", Parent: Brown},
	Vampire:    {ID: Vampire, Name: "吸血", Kind: "spell", Color: "blue", Parent: Blue, MatchesToGet: 4, IsSpell: true},
	CritStrike: {ID: CritStrike, Name: "暴击", Kind: "spell", Color: "red", Parent: Red, MatchesToGet: 4, IsSpell: true},
	Stun:       {ID: Stun, Name: "眩晕", Kind: "spell", Color: "orange", Parent: Orange, MatchesToGet: 4, IsSpell: true},
	Shield:     {ID: Shield, Name: "护盾", Kind: "spell", Color: "green", Parent: Green, MatchesToGet: 4, IsSpell: true},
	Poison:     {ID: Poison, Name: "中毒", Kind: "spell", Color: "purple", Parent: Purple, MatchesToGet: 4, IsSpell: true},
	Explosion:  {ID: Explosion, Name: "爆炸", Kind: "spell", Color: "brown", Parent: Brown, MatchesToGet: 4, IsSpell: true},
}

// GetJewelInfo 获取宝石信息，未知类型返回nil
func GetJewelInfo(t JewelType) *JewelInfo {
	return jewelInfos[t]
}

// IsRegular 是否为普通宝石
func (t JewelType) IsRegular() bool {
	return t >= Blue && t <= Brown
}

// IsSpell 是否为技能宝石
func (t JewelType) IsSpell() bool {
	return t >= Vampire && t <= Explosion
}

// Parent 返回对应的普通宝石，普通宝石返回自身
func (t JewelType) Parent() JewelType {
	if info := GetJewelInfo(t); info != nil {
		return info.Parent
	}
	return Empty
}

// SpellFor 返回普通宝石对应的技能宝石
func SpellFor(parent JewelType) (JewelType, bool) {
	if !parent.IsRegular() {
		return Empty, false
	}
	return parent + RegularTypeCount, true
}

// String 实现Stringer
func (t JewelType) String() string {
	if info := GetJewelInfo(t); info != nil {
		return info.Name
	}
	return fmt.Sprintf("JewelType(%d)", int(t))
}
