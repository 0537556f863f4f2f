package scoring

import "math"

// 六维领导力画像。终局一次性计算，会话进行中不得重算。

// Profile 六维画像，1-5 整数
type Profile struct {
	Vision        int
	Communication int
	Decision      int
	Empathy       int
	Execution     int
	Adaptability  int
}

const (
	profileBaseline = 3.0
	profileMin      = 1.0
	profileMax      = 5.0

	tagNudgeUp   = 0.5  // 打出的卡牌每命中一个维度标签
	tagNudgeDown = 0.25 // 失败挑战的标签反向微调
)

// ProfileInput 画像输入：参与者整局打出的卡牌标签与失败挑战的标签
type ProfileInput struct {
	PlayedTags []string // 所有打出卡牌的标签（允许重复，重复即多次微调）
	FailedTags []string // 所有失败挑战的标签
}

// BuildProfile 由标签推导六维画像。
//
// 每个维度从 3.0 起步，按标签逐次 ±，最后一次性截断到 [1,5]
// 并四舍五入为整数——不逐次截断，结果要求逐位可复现。
func BuildProfile(in ProfileInput) Profile {
	dims := map[string]float64{
		"vision":        profileBaseline,
		"communication": profileBaseline,
		"decision":      profileBaseline,
		"empathy":       profileBaseline,
		"execution":     profileBaseline,
		"adaptability":  profileBaseline,
	}

	for _, tag := range in.PlayedTags {
		if _, ok := dims[tag]; ok {
			dims[tag] += tagNudgeUp
		}
	}
	for _, tag := range in.FailedTags {
		if _, ok := dims[tag]; ok {
			dims[tag] -= tagNudgeDown
		}
	}

	return Profile{
		Vision:        finalize(dims["vision"]),
		Communication: finalize(dims["communication"]),
		Decision:      finalize(dims["decision"]),
		Empathy:       finalize(dims["empathy"]),
		Execution:     finalize(dims["execution"]),
		Adaptability:  finalize(dims["adaptability"]),
	}
}

func finalize(v float64) int {
	if v < profileMin {
		v = profileMin
	}
	if v > profileMax {
		v = profileMax
	}
	return int(math.Round(v))
}
