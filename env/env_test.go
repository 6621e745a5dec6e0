package env_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"
	"github.com/tsinghua-fib-lab/trafficrl-oss/env"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/config"
)

func TestResetAndTimeTruncation(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0"}
	c := config.Config{Control: config.Control{Step: config.ControlStep{Total: 2, Interval: 1}}}
	ctx := newTestContext(t, gw, c, []string{"n00"})
	e := env.New(ctx)
	assert.Equal(t, env.StatusClosed, e.Status())

	obs, err := e.Reset()
	assert.Nil(t, err)
	assert.True(t, gw.started)
	assert.Equal(t, env.StatusRunning, e.Status())
	assert.Len(t, obs["n00"], 51)

	result, err := e.Step(nil)
	assert.Nil(t, err)
	assert.False(t, result.Done)
	assert.Equal(t, env.StatusRunning, result.Status)

	// tick预算耗尽，按时间截断
	result, err = e.Step(nil)
	assert.Nil(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, env.StatusTruncatedByTime, result.Status)
	assert.Equal(t, env.StatusTruncatedByTime, e.Status())

	// episode结束后不能继续推进
	_, err = e.Step(nil)
	assert.NotNil(t, err)

	// reset重新开始
	_, err = e.Reset()
	assert.Nil(t, err)
	assert.Equal(t, env.StatusRunning, e.Status())
}

func TestStepDeterminism(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0", "l1"}
	gw.queues["l0"] = 4
	gw.waits["l0"] = 30
	gw.occupancy["l0"] = 40
	gw.arrived = 2
	c := config.Config{
		Signal:  config.Signal{MinGreen: 1},
		Control: config.Control{Step: config.ControlStep{Total: 100, Interval: 1}},
	}
	ctx := newTestContext(t, gw, c, []string{"n00"})
	e := env.New(ctx)

	seq := []action.Action{
		{Kind: action.Keep},
		{Kind: action.Switch, Phase: 1, Duration: 12},
		{Kind: action.Keep},
		{Kind: action.Switch, Phase: 2, Duration: 14},
		{Kind: action.Keep},
	}
	run := func() ([]map[string][]float64, []map[string]float64) {
		gw.phases["n00"] = 0 // 仿真器重启，相位回到初始
		first, err := e.Reset()
		assert.Nil(t, err)
		obsSeq := []map[string][]float64{first}
		rewardSeq := []map[string]float64{}
		for _, act := range seq {
			result, err := e.Step(map[string]action.Action{"n00": act})
			assert.Nil(t, err)
			assert.False(t, result.Done)
			obsSeq = append(obsSeq, result.Observations)
			rewardSeq = append(rewardSeq, result.Rewards)
		}
		return obsSeq, rewardSeq
	}

	// 重置后重放同一动作序列，观测与奖励序列逐tick一致
	obs1, rewards1 := run()
	obs2, rewards2 := run()
	assert.Equal(t, obs1, obs2)
	assert.Equal(t, rewards1, rewards2)
}

func TestCongestionTruncation(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0"}
	gw.occupancy["l0"] = 90 // 超过70%阈值，拥堵比例1 > 0.7
	c := config.Config{Control: config.Control{Step: config.ControlStep{Total: 100, Interval: 1}}}
	ctx := newTestContext(t, gw, c, []string{"n00"})
	e := env.New(ctx)

	_, err := e.Reset()
	assert.Nil(t, err)
	result, err := e.Step(nil)
	assert.Nil(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, env.StatusTruncatedByCongestion, result.Status)
	// 本tick奖励为切换惩罚-2（keep后相位时长1<3）再扣除拥堵惩罚50
	assert.InDelta(t, -52, result.Rewards["n00"], 1e-9)
}

func TestTimeBudgetPrecedesCongestion(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0"}
	gw.occupancy["l0"] = 90 // 拥堵比例1 > 0.7
	c := config.Config{Control: config.Control{Step: config.ControlStep{Total: 1, Interval: 1}}}
	ctx := newTestContext(t, gw, c, []string{"n00"})
	e := env.New(ctx)

	_, err := e.Reset()
	assert.Nil(t, err)
	// tick预算与拥堵同tick触发时按时间截断，不附加拥堵惩罚
	result, err := e.Step(nil)
	assert.Nil(t, err)
	assert.True(t, result.Done)
	assert.Equal(t, env.StatusTruncatedByTime, result.Status)
	assert.InDelta(t, -2, result.Rewards["n00"], 1e-9)
}

func TestNoCongestionBelowCeiling(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0", "l1", "l2"}
	gw.occupancy["l0"] = 90 // 拥堵比例1/3，低于0.7上限
	c := config.Config{Control: config.Control{Step: config.ControlStep{Total: 100, Interval: 1}}}
	ctx := newTestContext(t, gw, c, []string{"n00"})
	e := env.New(ctx)

	_, err := e.Reset()
	assert.Nil(t, err)
	result, err := e.Step(nil)
	assert.Nil(t, err)
	assert.False(t, result.Done)
	assert.InDelta(t, -2, result.Rewards["n00"], 1e-9)
}

func TestFailurePathClosesGateway(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0"}
	c := config.Config{Control: config.Control{Step: config.ControlStep{Total: 100, Interval: 1}}}
	ctx := newTestContext(t, gw, c, []string{"n00"})
	e := env.New(ctx)

	_, err := e.Reset()
	assert.Nil(t, err)

	// 推进时连接丢失
	gw.err = fmt.Errorf("broken pipe: %w", entity.ErrConnectionLost)
	closesBefore := gw.closeCalls
	result, err := e.Step(map[string]action.Action{
		"n00": {Kind: action.Keep},
	})
	assert.True(t, errors.Is(err, entity.ErrConnectionLost))
	assert.True(t, result.Done)
	assert.Equal(t, env.StatusFailed, result.Status)
	assert.Equal(t, env.StatusFailed, e.Status())
	// 失败路径上保证连接释放
	assert.Greater(t, gw.closeCalls, closesBefore)

	// Close幂等
	assert.Nil(t, e.Close())
	assert.Nil(t, e.Close())
	assert.Equal(t, env.StatusClosed, e.Status())
}

func TestMetricsAccumulation(t *testing.T) {
	gw := newStubGateway()
	gw.lanes["n00"] = []string{"l0"}
	gw.arrived = 3
	gw.vehs = []string{"v1", "v2"}
	gw.vehWaits["v1"] = 5
	gw.vehWaits["v2"] = 7
	c := config.Config{Control: config.Control{Step: config.ControlStep{Total: 100, Interval: 1}}}
	ctx := newTestContext(t, gw, c, []string{"n00"})
	e := env.New(ctx)

	_, err := e.Reset()
	assert.Nil(t, err)
	_, err = e.Step(nil)
	assert.Nil(t, err)
	_, err = e.Step(nil)
	assert.Nil(t, err)

	m := e.Metrics()
	assert.Equal(t, 6, m.Throughput)
	assert.InDelta(t, 24, m.TotalWaiting, 1e-9) // (5+7)×2 tick
	assert.Zero(t, m.CongestionLevel)

	// reset清空指标
	_, err = e.Reset()
	assert.Nil(t, err)
	assert.Zero(t, e.Metrics().Throughput)
}
