package scoring

import (
	"math"
	"time"

	"github.com/playleap/challenge-arena/internal/catalog"
)

// 判分常量。数值参与回放与测试比对，修改前先改测试。
const (
	TagMatchPoints    = 5    // 每张契合卡牌的基础加分
	RoleFitMultiplier = 1.25 // 角色与挑战类别契合时的倍率
	SpeedBonusMax     = 10   // 速度加成上限
	DefaultTimeBudget = 60   // 挑战未配置时间预算时的默认值（秒）

	StreakMultiplier = 1.5 // 连胜倍率（先乘）
	StreakFlatBonus  = 10  // 连胜固定加分（后加）
)

// Input 判分输入
type Input struct {
	Challenge catalog.ChallengeCard
	Role      catalog.RoleCard // 本回合选择的角色视角
	Team      []catalog.RoleCard
	Synergies []catalog.SynergyCard
	Elapsed   time.Duration // 从选定挑战到提交的耗时

	Streak          int // 提交前的连续成功次数
	StreakThreshold int // 连胜加成阈值（含）
}

// Breakdown 判分明细
type Breakdown struct {
	Base        int     // 基础分（含卡牌契合加分）
	RoleFit     float64 // 角色契合倍率
	SpeedBonus  int     // 速度加成
	StreakBonus int     // 连胜加成（乘算差值 + 固定加分）
}

// Result 判分结果
type Result struct {
	Passed    bool
	Points    int
	Breakdown Breakdown
}

// Evaluate 纯函数判分。
//
// 计算顺序固定：基础分 → 角色倍率（四舍五入）→ 速度加成 → 连胜
// （先 ×1.5 再 +固定分）。顺序影响结果，回放测试依赖逐位一致。
func Evaluate(in Input) Result {
	fit := fitCount(in)
	passed := fit >= in.Challenge.Difficulty

	if !passed {
		return Result{Passed: false, Points: 0, Breakdown: Breakdown{RoleFit: 1.0}}
	}

	base := in.Challenge.BasePoints + TagMatchPoints*fit

	roleFit := 1.0
	if in.Role.Category != "" && in.Role.Category == in.Challenge.Category {
		roleFit = RoleFitMultiplier
	}
	points := int(math.Round(float64(base) * roleFit))

	speed := speedBonus(in.Challenge, in.Elapsed)
	points += speed

	streakBonus := 0
	if in.StreakThreshold > 0 && in.Streak+1 >= in.StreakThreshold {
		boosted := int(math.Round(float64(points)*StreakMultiplier)) + StreakFlatBonus
		streakBonus = boosted - points
		points = boosted
	}

	return Result{
		Passed: true,
		Points: points,
		Breakdown: Breakdown{
			Base:        base,
			RoleFit:     roleFit,
			SpeedBonus:  speed,
			StreakBonus: streakBonus,
		},
	}
}

// fitCount 统计与挑战契合的卡牌数：类别相同的角色卡，或与挑战标签有交集的任意卡
func fitCount(in Input) int {
	n := 0
	for _, r := range in.Team {
		if r.Category == in.Challenge.Category || tagsOverlap(r.Tags, in.Challenge.Tags) {
			n++
		}
	}
	for _, s := range in.Synergies {
		if tagsOverlap(s.Tags, in.Challenge.Tags) {
			n++
		}
	}
	return n
}

// speedBonus 随耗时递减：预算内按剩余比例给 0..SpeedBonusMax，超预算为 0
func speedBonus(ch catalog.ChallengeCard, elapsed time.Duration) int {
	budget := ch.TimeBudget
	if budget <= 0 {
		budget = DefaultTimeBudget
	}
	budgetDur := time.Duration(budget) * time.Second
	if elapsed >= budgetDur {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := float64(budgetDur-elapsed) / float64(budgetDur)
	return int(math.Floor(remaining * SpeedBonusMax))
}

func tagsOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
