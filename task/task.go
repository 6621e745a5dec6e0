package task

import (
	"github.com/tsinghua-fib-lab/trafficrl-oss/clock"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/intersection"
	"github.com/tsinghua-fib-lab/trafficrl-oss/env"
	"github.com/tsinghua-fib-lab/trafficrl-oss/policy"
	"github.com/tsinghua-fib-lab/trafficrl-oss/traci"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/config"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/input"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/output"
)

// Context 训练任务上下文
// 功能：包含一次训练任务的所有组件与状态，替代全局变量
// 说明：组装时钟、路网拓扑、仿真器网关、路口管理器、环境、策略与输出
type Context struct {
	// 任务名
	job string

	// 时钟
	clock *clock.Clock
	// 路网拓扑
	topology entity.ITopology
	// 仿真器网关
	gateway entity.IGateway
	// 路口管理器
	intersectionManager entity.IIntersectionManager
	// 环境
	environment *env.Env
	// 决策策略
	policy entity.IPolicy
	// 动作空间
	space action.Space
	// episode记录输出器
	recorder *output.Recorder

	// 运行时配置
	runtimeConfig *config.RuntimeConfig
}

// NewContext 创建训练任务上下文
// 功能：初始化训练系统的所有组件
// 参数：job-任务名，policyName-策略名（random或max_pressure），c-配置对象
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 补全运行时配置并创建时钟
// 2. 加载路网拓扑（失败时panic，无路网无从训练）
// 3. 创建仿真器网关与路口管理器，并从拓扑建立路口集合
// 4. 创建环境、基线策略与episode输出器
func NewContext(job string, policyName string, c config.Config) *Context {
	ctx := &Context{job: job}
	ctx.runtimeConfig = config.NewRuntimeConfig(c)
	rc := ctx.runtimeConfig.All

	ctx.clock = clock.New(rc.Control.Step)

	topology, err := input.Load(rc.Network)
	if err != nil {
		log.Panicf("failed to load network topology: %v", err)
	}
	ctx.topology = topology

	ctx.gateway = traci.NewClient(rc.Sumo.RemotePort)
	ctx.intersectionManager = intersection.NewManager(ctx)
	if err := ctx.intersectionManager.Init(); err != nil {
		log.Panicf("failed to init intersections: %v", err)
	}

	ctx.environment = env.New(ctx)
	ctx.space = action.Space{
		MinGreen:       rc.Signal.MinGreen,
		MaxGreen:       rc.Signal.MaxGreen,
		NumGreenPhases: rc.Signal.NumGreenPhases,
		AllowKeep:      rc.Signal.AllowKeep,
	}
	switch policyName {
	case "random":
		ctx.policy = policy.NewRandom(ctx.space, uint64(rc.Sumo.RemotePort))
	case "max_pressure":
		ctx.policy = policy.NewMaxPressure(ctx.space, rc.Observation.LaneCap)
	default:
		log.Panicf("unknown policy %s", policyName)
	}
	ctx.recorder = output.NewRecorder(rc.Output)
	ctx.recorder.WriteRun(job, policyName, rc)
	return ctx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) Gateway() entity.IGateway {
	return ctx.gateway
}

func (ctx *Context) Topology() entity.ITopology {
	return ctx.topology
}

func (ctx *Context) IntersectionManager() entity.IIntersectionManager {
	return ctx.intersectionManager
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

// SetPolicy 替换决策策略
// 说明：供外部训练器接入自己的entity.IPolicy实现
func (ctx *Context) SetPolicy(p entity.IPolicy) {
	ctx.policy = p
}

// Close 释放任务持有的全部外部资源
func (ctx *Context) Close() {
	if err := ctx.environment.Close(); err != nil {
		log.Errorf("close environment: %v", err)
	}
	ctx.recorder.Close()
}
