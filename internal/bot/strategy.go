package bot

import (
	"github.com/playleap/challenge-arena/internal/protocol"
)

// pickChallenge 按档位从中央池挑挑战。
// 调用前保证 snap.Center 非空。
func (a *Agent) pickChallenge(snap *protocol.SessionStatePayload) protocol.ChallengeInfo {
	center := snap.Center
	if a.Tier == TierEasy {
		return center[a.rng.IntN(len(center))]
	}

	// 统计手里每个类别的角色数，选契合度最高的挑战；
	// 平手取低难度（更容易达标）。
	roleByCategory := map[string]int{}
	for _, c := range snap.Hand {
		if c.Kind == "role" && c.Category != "" {
			roleByCategory[c.Category]++
		}
	}

	best := center[0]
	bestFit := roleByCategory[best.Category]
	for _, ch := range center[1:] {
		fit := roleByCategory[ch.Category]
		if fit > bestFit || (fit == bestFit && ch.Difficulty < best.Difficulty) {
			best, bestFit = ch, fit
		}
	}
	if a.Tier == TierSmart {
		return best
	}

	// 普通档：有契合就拿，没有就随机
	if bestFit > 0 {
		return best
	}
	return center[a.rng.IntN(len(center))]
}

// pickTeam 组队。首张必须是角色卡（决策视角），后面可带协同卡。
func (a *Agent) pickTeam(hand []protocol.CardInfo, ch protocol.ChallengeInfo) []string {
	var roles, synergies []protocol.CardInfo
	for _, c := range hand {
		if c.Kind == "role" {
			roles = append(roles, c)
		} else {
			synergies = append(synergies, c)
		}
	}
	if len(roles) == 0 {
		return nil
	}

	if a.Tier == TierEasy {
		return []string{roles[a.rng.IntN(len(roles))].ID}
	}

	// 类别匹配的角色优先做视角
	lead := roles[0]
	for _, r := range roles {
		if r.Category == ch.Category {
			lead = r
			break
		}
	}
	team := []string{lead.ID}

	if a.Tier == TierSmart {
		// 其余匹配类别的角色 + 全部协同卡都带上
		for _, r := range roles {
			if r.ID != lead.ID && r.Category == ch.Category {
				team = append(team, r.ID)
			}
		}
		for _, sy := range synergies {
			team = append(team, sy.ID)
		}
	}
	return team
}

// pickHiddenCell 从未翻开的格子里随机挑一个，exclude 排除本回合第一张
func (a *Agent) pickHiddenCell(cells []protocol.CellInfo, exclude int) (int, bool) {
	var hidden []int
	for _, c := range cells {
		if c.State == "none" && c.Index != exclude {
			hidden = append(hidden, c.Index)
		}
	}
	if len(hidden) == 0 {
		return 0, false
	}
	return hidden[a.rng.IntN(len(hidden))], true
}
