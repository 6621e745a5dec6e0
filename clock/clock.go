package clock

import (
	"fmt"

	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/config"
)

// Clock episode时钟
// 功能：管理单个episode内的时间推进与tick预算
// 说明：每个tick对应一次仿真器推进；reset时回到0
type Clock struct {
	DT     float64 // 每tick时间间隔（秒）
	BUDGET int32   // 每episode的tick预算

	Step int32   // 当前episode内的tick数
	T    float64 // 当前episode内的时间（秒）
}

// New 根据配置创建新的时钟实例
// 参数：stepConfig-控制步配置，包含tick预算与时间间隔
// 返回：初始化完成的时钟实例
func New(stepConfig config.ControlStep) *Clock {
	c := &Clock{
		DT:     stepConfig.Interval,
		BUDGET: stepConfig.Total,
	}
	c.Reset()
	return c
}

// Reset 重置时钟状态
// 说明：episode开始时调用，tick与时间归零
func (c *Clock) Reset() {
	c.Step = 0
	c.T = 0
}

// Tick 推进一个tick
func (c *Clock) Tick() {
	c.Step++
	c.T = float64(c.Step) * c.DT
}

// Exhausted 判断tick预算是否用尽
// 返回：true表示本episode达到时间预算，应按时间截断
func (c *Clock) Exhausted() bool {
	return c.Step >= c.BUDGET
}

// String 获取时钟的字符串表示
// 返回：格式化的时间字符串（HH:MM:SS）
func (c *Clock) String() string {
	t := c.T
	h := int(t / 3600)
	t -= float64(h * 3600)
	m := int(t / 60)
	t -= float64(m * 60)
	s := int(t)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
