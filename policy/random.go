// 基线决策策略：随机探索与最大压力法
// 说明：外部训练器（DQN/PPO/A3C等）通过entity.IPolicy契约接入，
// 本包只提供不需要学习的两个基线
package policy

import (
	"flag"

	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/randengine"
)

var (
	randomKeepBias = flag.Float64("policy.random_keep_bias", 0.3, "随机策略选择keep动作的概率")
)

// Random 随机基线策略
// 功能：在动作空间内均匀采样，启用keep时以固定概率偏向keep
// 说明：不学习，Update恒为无更新
type Random struct {
	space  action.Space
	engine *randengine.Engine
}

// NewRandom 创建随机基线策略
// 参数：space-动作空间，seed-随机种子
func NewRandom(space action.Space, seed uint64) *Random {
	return &Random{
		space:  space,
		engine: randengine.New(seed),
	}
}

// SelectAction 随机选择动作
// 说明：关闭探索时退化为确定性keep；keep被禁用的布局没有中性动作，
// 此时仍然均匀采样
func (p *Random) SelectAction(id string, observation []float64, explore bool) (int, entity.PolicyExtras) {
	if p.space.AllowKeep && (!explore || p.engine.PTrue(*randomKeepBias)) {
		return 0, entity.NoExtras{}
	}
	indices := p.space.Indices()
	return indices[p.engine.RandomIntInRange(0, len(indices)-1)], entity.NoExtras{}
}

// Update 随机策略不学习
func (p *Random) Update(batch []*entity.Transition) (float64, bool) {
	return 0, false
}
