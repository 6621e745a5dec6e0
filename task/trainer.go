package task

import (
	"flag"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"
	"github.com/tsinghua-fib-lab/trafficrl-oss/env"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/output"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔tick数")
)

// chosenAction 单路口单tick的决策记录（transition装配用）
type chosenAction struct {
	index  int
	extras entity.PolicyExtras
}

// Train 训练入口
// 功能：按配置的episode数运行训练循环，每tick将transition批量交给策略
// 更新，按间隔触发检查点保存
// 说明：单个episode失败（仿真器异常）只记录日志并继续下一个episode
func (ctx *Context) Train() {
	c := ctx.runtimeConfig.All.Control
	log.Infof("training for %d episodes, job %s", c.Episodes, ctx.job)
	for ep := 0; ep < c.Episodes; ep++ {
		ctx.runEpisode(ep, "train")
		if c.CheckpointInterval > 0 && (ep+1)%c.CheckpointInterval == 0 {
			if cp, ok := ctx.policy.(entity.ICheckpointer); ok {
				if err := cp.Save(c.CheckpointDir); err != nil {
					log.Errorf("episode %d: checkpoint failed: %v", ep, err)
				} else {
					log.Infof("episode %d: checkpoint saved to %s", ep, c.CheckpointDir)
				}
			}
		}
	}
	ctx.Close()
}

// Evaluate 评估入口
// 功能：以关闭探索、不更新策略的方式运行配置的评估episode数
func (ctx *Context) Evaluate() {
	c := ctx.runtimeConfig.All.Control
	log.Infof("evaluating for %d episodes, job %s", c.EvalEpisodes, ctx.job)
	for ep := 0; ep < c.EvalEpisodes; ep++ {
		ctx.runEpisode(ep, "eval")
	}
	ctx.Close()
}

// runEpisode 运行单个episode
// 功能：reset环境后循环执行 决策→推进→transition装配→策略更新，
// 直至环境报告episode结束
// 参数：ep-episode序号，mode-train（启用探索与策略更新）或eval
// 算法说明：
// 1. 各路口按ID序依次决策，动作编号经动作空间解码为语义动作
// 2. 推进后用（动作前观测，动作，奖励，动作后观测）装配transition批次
// 3. train模式下每tick调用一次策略更新
func (ctx *Context) runEpisode(ep int, mode string) {
	obs, err := ctx.environment.Reset()
	if err != nil {
		log.Errorf("episode %d: reset failed: %v", ep, err)
		return
	}
	explore := mode == "train"
	ids := ctx.intersectionManager.IDs()

	episodeReward := 0.0
	lastLoss := 0.0
	status := env.StatusRunning

	for {
		actions := make(map[string]action.Action, len(ids))
		chosen := make(map[string]chosenAction, len(ids))
		for _, id := range ids {
			o, ok := obs[id]
			if !ok {
				continue
			}
			index, extras := ctx.policy.SelectAction(id, o, explore)
			act, err := ctx.space.Decode(index)
			if err != nil {
				log.Warnf("episode %d: intersection %s: %v", ep, id, err)
				continue
			}
			actions[id] = act
			chosen[id] = chosenAction{index: index, extras: extras}
		}

		result, err := ctx.environment.Step(actions)
		if err != nil {
			log.Errorf("episode %d aborted: %v", ep, err)
			status = env.StatusFailed
			break
		}
		episodeReward += lo.Sum(lo.Values(result.Rewards))

		if mode == "train" {
			batch := make([]*entity.Transition, 0, len(chosen))
			for _, id := range ids {
				ch, ok := chosen[id]
				if !ok {
					continue
				}
				batch = append(batch, &entity.Transition{
					ID:              id,
					Observation:     obs[id],
					ActionIndex:     ch.index,
					Reward:          result.Rewards[id],
					NextObservation: result.Observations[id],
					Terminal:        result.Done,
					Extras:          ch.extras,
				})
			}
			if loss, ok := ctx.policy.Update(batch); ok {
				lastLoss = loss
			}
		}

		obs = result.Observations
		if ctx.clock.Step%int32(*heartBeatInterval) == 0 {
			log.Infof("episode %d STEP: %d(%s) reward %.2f", ep, ctx.clock.Step, ctx.clock, episodeReward)
		}
		if result.Done {
			status = result.Status
			break
		}
	}

	metrics := ctx.environment.Metrics()
	log.Infof("episode %d (%s) finished: %v after %d steps, reward %.2f, loss %.4f, throughput %d, waiting %.0f",
		ep, mode, status, ctx.clock.Step, episodeReward, lastLoss, metrics.Throughput, metrics.TotalWaiting)
	ctx.recorder.WriteEpisode(output.EpisodeRecord{
		Job:             ctx.job,
		Mode:            mode,
		Episode:         ep,
		Steps:           ctx.clock.Step,
		Status:          status.String(),
		Reward:          episodeReward,
		Loss:            lastLoss,
		TotalWaiting:    metrics.TotalWaiting,
		Throughput:      metrics.Throughput,
		CongestionLevel: metrics.CongestionLevel,
		EmergencySeen:   metrics.EmergencySeen,
	})
}
