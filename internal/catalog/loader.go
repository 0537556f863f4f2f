package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed decks.yaml
var defaultDecks []byte

// deckFile 牌组文件结构
type deckFile struct {
	Challenges   []ChallengeCard `yaml:"challenges"`
	Roles        []RoleCard      `yaml:"roles"`
	Synergies    []SynergyCard   `yaml:"synergies"`
	PairContents []PairContent   `yaml:"pair_contents"`
}

// Load 从 yaml 文件加载目录
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// Default 返回内置默认目录
func Default() *Catalog {
	c, err := parse(defaultDecks)
	if err != nil {
		// 内置牌组随代码发布，解析失败属于构建错误
		panic(fmt.Sprintf("内置牌组损坏: %v", err))
	}
	return c
}

func parse(data []byte) (*Catalog, error) {
	var f deckFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("解析牌组失败: %w", err)
	}
	if len(f.Challenges) == 0 {
		return nil, fmt.Errorf("牌组缺少挑战卡")
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("牌组缺少角色卡")
	}
	return newCatalog(f.Challenges, f.Roles, f.Synergies, f.PairContents), nil
}
