// 随机数引擎，包装了golang.org/x/exp/rand，提供探索策略所需的随机数生成方法
package randengine

import (
	"flag"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数序列
)

// Engine 随机数引擎
// 说明：基于golang.org/x/exp/rand，相同种子产生相同序列（用于可复现实验）
type Engine struct {
	*rand.Rand
}

// New 创建随机数引擎
// 参数：seed-随机数种子（叠加全局种子偏移量）
// 返回：随机数引擎指针
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrue 以指定概率返回true
// 参数：p-返回true的概率（0.0到1.0之间）
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// RandomIntInRange 生成[min, max]范围内的随机整数
func (e *Engine) RandomIntInRange(min, max int) int {
	return min + e.Intn(max-min+1)
}
