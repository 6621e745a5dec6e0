// 多智能体信控环境：episode生命周期、单tick推进与终止判定
package env

import (
	"errors"
	"fmt"

	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"
)

// Status 环境状态
type Status int

const (
	StatusReset                 Status = iota // 已重置，等待第一步
	StatusRunning                             // episode推进中
	StatusTruncatedByTime                     // tick预算耗尽
	StatusTruncatedByCongestion               // 拥堵比例超限截断
	StatusFailed                              // 仿真器致命错误
	StatusClosed                              // 已关闭
)

func (s Status) String() string {
	switch s {
	case StatusReset:
		return "reset"
	case StatusRunning:
		return "running"
	case StatusTruncatedByTime:
		return "truncated_by_time"
	case StatusTruncatedByCongestion:
		return "truncated_by_congestion"
	case StatusFailed:
		return "failed"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// StepResult 单tick推进结果
type StepResult struct {
	Observations map[string][]float64 // 各路口的动作后观测
	Rewards      map[string]float64   // 各路口的即时奖励
	Done         bool                 // episode是否结束
	Status       Status               // 推进后的环境状态
}

// Env 多智能体信控环境
// 功能：面向训练循环的reset/step/close接口；每tick按 相位命令→仿真推进→
// 延迟切换结算→观测→奖励→终止判定 的固定顺序执行
// 说明：仿真器是单一有状态外部资源，step必须从单一控制流串行调用；
// 观测/奖励装配在内部跨路口并行
type Env struct {
	ctx entity.ITaskContext

	registry *EmergencyRegistry
	metrics  Metrics
	status   Status
}

// New 创建环境实例
// 参数：ctx-任务上下文
func New(ctx entity.ITaskContext) *Env {
	return &Env{
		ctx:      ctx,
		registry: NewEmergencyRegistry(),
		status:   StatusClosed,
	}
}

// Status 当前环境状态
func (e *Env) Status() Status {
	return e.status
}

// Metrics 当前episode的累积指标
func (e *Env) Metrics() Metrics {
	return e.metrics
}

// Registry 本episode的应急车辆登记表
func (e *Env) Registry() entity.IEmergencyRegistry {
	return e.registry
}

// Reset 开始新episode
// 功能：关闭存活的仿真器连接并重启仿真器进程，重置时钟与所有路口的
// 相位状态机，清空指标与应急车辆登记表，返回首个观测集合
// 说明：任何状态下均可调用
func (e *Env) Reset() (map[string][]float64, error) {
	gw := e.ctx.Gateway()
	if err := gw.Close(); err != nil {
		log.Warnf("close before reset: %v", err)
	}
	if err := gw.Start(e.ctx.RuntimeConfig().SumoCommand()); err != nil {
		e.status = StatusFailed
		return nil, fmt.Errorf("reset: %w", err)
	}
	e.status = StatusReset
	e.ctx.Clock().Reset()
	e.registry.Clear()
	e.metrics.reset()
	if err := e.ctx.IntersectionManager().Reset(); err != nil {
		return nil, e.fail(err)
	}
	obs, err := e.ctx.IntersectionManager().Observe(e.registry)
	if err != nil {
		return obs, e.fail(err)
	}
	e.status = StatusRunning
	return obs, nil
}

// Step 推进一个tick
// 功能：施加各路口动作、推进仿真一步、结算延迟切换、重建观测、计算奖励、
// 更新指标并判定终止
// 参数：actions-各路口的语义动作（缺失的路口按keep处理）
// 算法说明：
// 1. tick预算耗尽 ⇒ TruncatedByTime（先于拥堵判定，同时满足时不附加
//    拥堵惩罚）
// 2. 否则拥堵车道比例超过上限 ⇒ TruncatedByCongestion，且本tick每个
//    路口的奖励额外扣除固定惩罚
// 3. 致命仿真器错误 ⇒ Failed，仍返回已装配完成的部分观测，并保证连接释放
func (e *Env) Step(actions map[string]action.Action) (*StepResult, error) {
	if e.status != StatusRunning {
		return nil, fmt.Errorf("step called in status %v", e.status)
	}
	c := e.ctx.RuntimeConfig().All
	gw := e.ctx.Gateway()
	manager := e.ctx.IntersectionManager()

	if err := manager.ApplyActions(actions); err != nil {
		return e.failResult(nil, nil, err)
	}
	e.ctx.Clock().Tick()
	if err := gw.Tick(); err != nil {
		return e.failResult(nil, nil, err)
	}
	if err := manager.ResolvePending(); err != nil {
		return e.failResult(nil, nil, err)
	}

	obs, err := manager.Observe(e.registry)
	if err != nil {
		return e.failResult(obs, nil, err)
	}
	arrived, err := gw.ArrivedCount()
	if err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return e.failResult(obs, nil, err)
		}
		arrived = 0
	}
	rewards, err := manager.Rewards(e.registry, arrived)
	if err != nil {
		return e.failResult(obs, rewards, err)
	}
	congestion, err := manager.CongestionRatio()
	if err != nil {
		return e.failResult(obs, rewards, err)
	}
	if err := e.metrics.update(gw, arrived, congestion); err != nil {
		return e.failResult(obs, rewards, err)
	}
	e.metrics.EmergencySeen = e.registry.Count()

	result := &StepResult{Observations: obs, Rewards: rewards, Status: StatusRunning}
	if e.ctx.Clock().Exhausted() {
		result.Done = true
		result.Status = StatusTruncatedByTime
	} else if congestion > c.Congestion.RatioCeiling {
		log.Infof("episode truncated: %.0f%% of lanes congested at %s",
			congestion*100, e.ctx.Clock())
		for id := range result.Rewards {
			result.Rewards[id] -= c.Congestion.Penalty
		}
		result.Done = true
		result.Status = StatusTruncatedByCongestion
	}
	e.status = result.Status
	return result, nil
}

// Close 关闭环境与仿真器连接
// 说明：幂等，可在任何状态（含失败路径）下重复调用
func (e *Env) Close() error {
	err := e.ctx.Gateway().Close()
	e.status = StatusClosed
	return err
}

// fail 标记环境失败并释放仿真器连接
func (e *Env) fail(err error) error {
	e.status = StatusFailed
	if cerr := e.ctx.Gateway().Close(); cerr != nil {
		log.Warnf("close after failure: %v", cerr)
	}
	log.Errorf("episode failed: %v", err)
	return err
}

// failResult 失败路径的推进结果：携带已装配的部分观测/奖励
func (e *Env) failResult(obs map[string][]float64, rewards map[string]float64, err error) (*StepResult, error) {
	return &StepResult{
		Observations: obs,
		Rewards:      rewards,
		Done:         true,
		Status:       StatusFailed,
	}, e.fail(err)
}
