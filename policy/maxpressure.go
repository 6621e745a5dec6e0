package policy

import (
	"flag"
	"math"

	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/container"
)

var (
	mpMaxRepeatCount = flag.Int("policy.mp_max_repeat_count", 6, "最大压力法每个相位最多重复的次数")
)

// MaxPressure 最大压力基线策略
// 功能：不按固定相位顺序切换，每步从观测的车道排队特征估计各绿灯相位
// 的压力，选取压力最大的相位
// 算法说明：
// 1. 车道j按 j mod 相位数 轮转归入相位，相位压力为其车道排队特征之和
// 2. 压力最大的相位与当前相位相同时保持；连续保持达到最大重复次数后
//    强制切换到压力第二大的相位
// 3. 切换时长取最小绿灯时长
// 说明：不学习，Update恒为无更新
type MaxPressure struct {
	space   action.Space
	laneCap int

	repeats map[string]int // 路口->当前相位连续保持次数
}

// NewMaxPressure 创建最大压力基线策略
// 参数：space-动作空间，laneCap-观测的车道数上限
func NewMaxPressure(space action.Space, laneCap int) *MaxPressure {
	return &MaxPressure{
		space:   space,
		laneCap: laneCap,
		repeats: make(map[string]int),
	}
}

// SelectAction 按最大压力选择动作
// 说明：观测向量开头laneCap维为各车道排队特征，其后第5×laneCap维为
// 归一化相位；观测长度不足时退化为keep（或相位0）
func (p *MaxPressure) SelectAction(id string, observation []float64, explore bool) (int, entity.PolicyExtras) {
	if len(observation) < 5*p.laneCap+1 {
		return p.keep(0)
	}
	current := int(math.Round(observation[5*p.laneCap] * float64(p.space.NumGreenPhases)))
	if current < 0 || current >= p.space.NumGreenPhases {
		current = 0
	}

	// 小顶堆，压力越大越靠前
	pressureHeap := container.NewPriorityQueue[int]()
	for phase := 0; phase < p.space.NumGreenPhases; phase++ {
		pressure := 0.0
		for j := phase; j < p.laneCap; j += p.space.NumGreenPhases {
			pressure += observation[j]
		}
		pressureHeap.Push(phase, -pressure)
	}
	pressureHeap.Heapify()

	best, _ := pressureHeap.HeapPop()
	if best == current {
		// 单相位空间堆已空，没有次优相位可供强制切换
		if p.repeats[id] < *mpMaxRepeatCount || pressureHeap.Len() == 0 {
			p.repeats[id]++
			return p.keep(current)
		}
		// 达到最大重复次数，切换到压力第二大的相位
		best, _ = pressureHeap.HeapPop()
	}
	p.repeats[id] = 1
	index, err := p.space.Encode(action.Action{
		Kind:     action.Switch,
		Phase:    best,
		Duration: p.space.MinGreen,
	})
	if err != nil {
		log.Warnf("max pressure: encode phase %d failed: %v", best, err)
		return p.keep(current)
	}
	return index, entity.NoExtras{}
}

// keep 保持当前相位的动作编号
// 说明：keep被禁用时退化为以最小绿灯时长重设当前相位
func (p *MaxPressure) keep(current int) (int, entity.PolicyExtras) {
	if p.space.AllowKeep {
		return 0, entity.NoExtras{}
	}
	index, err := p.space.Encode(action.Action{
		Kind:     action.Switch,
		Phase:    current,
		Duration: p.space.MinGreen,
	})
	if err != nil {
		log.Warnf("max pressure: keep encode failed: %v", err)
		return 0, entity.NoExtras{}
	}
	return index, entity.NoExtras{}
}

// Update 最大压力策略不学习
func (p *MaxPressure) Update(batch []*entity.Transition) (float64, bool) {
	return 0, false
}
