// 动作编码：决策策略的整数动作空间与语义动作（保持|切换相位+时长）之间的双向映射
package action

import "fmt"

// Kind 动作类型
type Kind int

const (
	Keep   Kind = iota // 保持当前相位
	Switch             // 切换到指定绿灯相位并设置时长
)

// Action 语义动作
type Action struct {
	Kind     Kind
	Phase    int // 目标绿灯相位，范围[0, NumGreenPhases)，Keep时无意义
	Duration int // 目标绿灯时长（秒），落在min+2k网格上，Keep时无意义
}

// Space 动作空间定义
// 功能：描述一个路口的完整离散动作空间，提供编码/解码的纯函数映射
// 说明：启用keep时编号0为keep，其余编号依次为（相位，时长桶）组合；
// 时长桶以2秒为步长从MinGreen递增到MaxGreen
type Space struct {
	MinGreen       int  // 最小绿灯时长（秒）
	MaxGreen       int  // 最大绿灯时长（秒）
	NumGreenPhases int  // 绿灯相位数
	AllowKeep      bool // 是否启用keep动作
}

// DurationBuckets 时长桶数量
func (s Space) DurationBuckets() int {
	return (s.MaxGreen-s.MinGreen)/2 + 1
}

// Size 动作空间大小
// 说明：启用keep时为 1 + 相位数×时长桶数，否则为 相位数×时长桶数
func (s Space) Size() int {
	n := s.NumGreenPhases * s.DurationBuckets()
	if s.AllowKeep {
		n++
	}
	return n
}

// Indices 枚举全部合法动作编号
// 说明：供采样型调用方（如随机探索策略）遍历动作空间
func (s Space) Indices() []int {
	indices := make([]int, s.Size())
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// Decode 将动作编号解码为语义动作
// 功能：(编号, MinGreen, MaxGreen, NumGreenPhases, AllowKeep)的纯函数
// 参数：index-动作编号，范围[0, Size())
// 返回：语义动作与错误信息
// 算法说明：
// 1. 启用keep时编号0解码为keep，其余编号整体前移1
// 2. 相位 = 编号 mod 相位数，时长桶 = 编号 div 相位数
// 3. 时长 = MinGreen + 2×时长桶，并截断到MaxGreen以内
func (s Space) Decode(index int) (Action, error) {
	if index < 0 || index >= s.Size() {
		return Action{}, fmt.Errorf("action index %d out of range [0, %d)", index, s.Size())
	}
	if s.AllowKeep {
		if index == 0 {
			return Action{Kind: Keep}, nil
		}
		index--
	}
	phase := index % s.NumGreenPhases
	bucket := index / s.NumGreenPhases
	duration := s.MinGreen + bucket*2
	if duration > s.MaxGreen {
		duration = s.MaxGreen
	}
	return Action{Kind: Switch, Phase: phase, Duration: duration}, nil
}

// Encode 将语义动作编码为动作编号
// 功能：Decode的精确左逆，对所有可解码动作满足Encode(Decode(i)) == i
// 参数：a-语义动作
// 返回：动作编号与错误信息
// 说明：时长不在min+2k网格上时显式报错而不是静默取整
func (s Space) Encode(a Action) (int, error) {
	if a.Kind == Keep {
		if !s.AllowKeep {
			return 0, fmt.Errorf("keep action is disabled in this space")
		}
		return 0, nil
	}
	if a.Phase < 0 || a.Phase >= s.NumGreenPhases {
		return 0, fmt.Errorf("phase %d out of range [0, %d)", a.Phase, s.NumGreenPhases)
	}
	if a.Duration < s.MinGreen || a.Duration > s.MaxGreen {
		return 0, fmt.Errorf("duration %d out of range [%d, %d]", a.Duration, s.MinGreen, s.MaxGreen)
	}
	if (a.Duration-s.MinGreen)%2 != 0 {
		return 0, fmt.Errorf("duration %d not on the %d+2k grid", a.Duration, s.MinGreen)
	}
	bucket := (a.Duration - s.MinGreen) / 2
	index := a.Phase + bucket*s.NumGreenPhases
	if s.AllowKeep {
		index++
	}
	return index, nil
}
