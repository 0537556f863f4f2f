package catalog

import "slices"

// 卡牌目录：挑战卡、角色卡、协同卡、配对内容。
// 加载完成后全部只读，访问器一律返回副本。

// ChallengeCard 挑战卡（情境/场景）
type ChallengeCard struct {
	ID         string   `yaml:"id" json:"id"`
	Title      string   `yaml:"title" json:"title"`
	Category   string   `yaml:"category" json:"category"`
	Difficulty int      `yaml:"difficulty" json:"difficulty"` // 1-3，也是通过所需的匹配数
	BasePoints int      `yaml:"base_points" json:"base_points"`
	TimeBudget int      `yaml:"time_budget" json:"time_budget"` // 决策时间预算（秒）
	Tags       []string `yaml:"tags" json:"tags"`
}

// RoleCard 角色卡
type RoleCard struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Category string   `yaml:"category" json:"category"` // 最适配的挑战类别
	Tags     []string `yaml:"tags" json:"tags"`
}

// SynergyCard 协同卡
type SynergyCard struct {
	ID   string   `yaml:"id" json:"id"`
	Name string   `yaml:"name" json:"name"`
	Tags []string `yaml:"tags" json:"tags"`
}

// PairContent 配对玩法的格子内容，Pair 相同的两张构成一对
type PairContent struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Pair string `yaml:"pair" json:"pair"`
}

// Catalog 不可变卡牌目录
type Catalog struct {
	challenges   []ChallengeCard
	roles        []RoleCard
	synergies    []SynergyCard
	pairContents []PairContent

	challengeByID map[string]int
	roleByID      map[string]int
	synergyByID   map[string]int
}

func newCatalog(challenges []ChallengeCard, roles []RoleCard, synergies []SynergyCard, pairs []PairContent) *Catalog {
	c := &Catalog{
		challenges:    challenges,
		roles:         roles,
		synergies:     synergies,
		pairContents:  pairs,
		challengeByID: make(map[string]int, len(challenges)),
		roleByID:      make(map[string]int, len(roles)),
		synergyByID:   make(map[string]int, len(synergies)),
	}
	for i, ch := range challenges {
		c.challengeByID[ch.ID] = i
	}
	for i, r := range roles {
		c.roleByID[r.ID] = i
	}
	for i, s := range synergies {
		c.synergyByID[s.ID] = i
	}
	return c
}

// Challenge 按 ID 查找挑战卡
func (c *Catalog) Challenge(id string) (ChallengeCard, bool) {
	i, ok := c.challengeByID[id]
	if !ok {
		return ChallengeCard{}, false
	}
	return c.challenges[i], true
}

// Role 按 ID 查找角色卡
func (c *Catalog) Role(id string) (RoleCard, bool) {
	i, ok := c.roleByID[id]
	if !ok {
		return RoleCard{}, false
	}
	return c.roles[i], true
}

// Synergy 按 ID 查找协同卡
func (c *Catalog) Synergy(id string) (SynergyCard, bool) {
	i, ok := c.synergyByID[id]
	if !ok {
		return SynergyCard{}, false
	}
	return c.synergies[i], true
}

// Challenges 返回全部挑战卡副本
func (c *Catalog) Challenges() []ChallengeCard {
	return slices.Clone(c.challenges)
}

// ChallengesByCategory 按类别筛选挑战卡
func (c *Catalog) ChallengesByCategory(category string) []ChallengeCard {
	var out []ChallengeCard
	for _, ch := range c.challenges {
		if category == "" || ch.Category == category {
			out = append(out, ch)
		}
	}
	return out
}

// ChallengesByDifficulty 按难度上限筛选挑战卡
func (c *Catalog) ChallengesByDifficulty(maxDifficulty int) []ChallengeCard {
	var out []ChallengeCard
	for _, ch := range c.challenges {
		if ch.Difficulty <= maxDifficulty {
			out = append(out, ch)
		}
	}
	return out
}

// Roles 返回全部角色卡副本
func (c *Catalog) Roles() []RoleCard {
	return slices.Clone(c.roles)
}

// Synergies 返回全部协同卡副本
func (c *Catalog) Synergies() []SynergyCard {
	return slices.Clone(c.synergies)
}

// PairContents 返回全部配对内容副本
func (c *Catalog) PairContents() []PairContent {
	return slices.Clone(c.pairContents)
}
