// 路口相位状态机：最小/最大绿灯约束、黄灯过渡与延迟切换结算
package intersection

import (
	"errors"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/config"
)

// pendingSwitch 延迟相位切换
// 说明：绿灯间切换先进入黄灯清空，目标相位与时长挂起，
// 等仿真器回到偶数（绿灯）相位后结算；每个路口至多一条，
// 后到者覆盖先到者
type pendingSwitch struct {
	targetPhase int // 目标相位（仿真器编号，偶数）
	duration    int // 目标绿灯时长（秒）
}

// Intersection 单个信控路口
// 功能：维护相位状态机（当前绿灯相位、相位内计时、挂起切换）与
// 观测所需的车道/邻居集合
// 说明：状态只被管理器在一个tick内串行修改，不做内部加锁
type Intersection struct {
	id        string
	neighbors []string // 网格相邻路口ID（≤4）

	lanes    []string // 受控进口车道（去重，截断到laneCap）
	outLanes []string // 受控连接的出口车道（去重，压力计算用）

	phase   int            // 当前绿灯相位，范围[0, NumGreenPhases)
	timer   int            // 当前相位已持续tick数
	pending *pendingSwitch // 挂起的延迟切换，无则为nil

	signal config.Signal
}

// newIntersection 创建路口实例
// 参数：id-路口ID，neighbors-相邻路口ID列表，signal-信号相位配置
// 说明：受控车道在仿真器启动后由resolveLanes解析
func newIntersection(id string, neighbors []string, signal config.Signal) *Intersection {
	return &Intersection{
		id:        id,
		neighbors: neighbors,
		signal:    signal,
	}
}

// ID 路口ID
func (i *Intersection) ID() string {
	return i.id
}

// reset 重置相位状态机到初始状态（绿灯相位0，计时归零，无挂起切换）
func (i *Intersection) reset() {
	i.phase = 0
	i.timer = 0
	i.pending = nil
}

// resolveLanes 从仿真器解析受控车道集合
// 功能：查询受控进口车道（去重并截断到laneCap）与受控连接的出口车道
// 参数：gw-仿真器网关，laneCap-进口车道数上限
// 说明：查询失败时车道集合为空（观测退化为全零向量），连接丢失时返回错误
func (i *Intersection) resolveLanes(gw entity.IGateway, laneCap int) error {
	i.lanes = nil
	i.outLanes = nil

	lanes, err := gw.ControlledLanes(i.id)
	if err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		log.Warnf("intersection %s: controlled lanes unavailable: %v", i.id, err)
		return nil
	}
	unique := lo.Uniq(lanes)
	if len(unique) > laneCap {
		unique = unique[:laneCap]
	}
	i.lanes = unique

	links, err := gw.ControlledLinks(i.id)
	if err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		log.Warnf("intersection %s: controlled links unavailable: %v", i.id, err)
		return nil
	}
	i.outLanes = lo.Uniq(lo.FilterMap(links, func(link entity.Link, _ int) (string, bool) {
		return link.Out, link.Out != ""
	}))
	return nil
}

// apply 将一个动作施加到相位状态机
// 功能：按相位协议处理keep/switch动作
// 参数：gw-仿真器网关，act-语义动作
// 算法说明：
// 1. keep：计时递增；达到最大绿灯时长后计时归零（迫使后续切换重新评估），
//    相位不变
// 2. 当前处于黄灯（仿真器报告奇数相位）：动作延后，计时递增
// 3. 未满最小绿灯时长的switch：拒绝（no-op），计时递增
// 4. switch到当前相位：直接更新剩余时长，计时归零
// 5. switch到其他绿灯相位：命令进入当前相位的黄灯并挂起目标相位与时长，
//    计时归零，待黄灯清空后由resolve结算
// 说明：单次查询/命令失败只记录日志且本tick计时保持原状（降级），
// 连接丢失则返回错误终止episode
func (i *Intersection) apply(gw entity.IGateway, act action.Action) error {
	if act.Kind == action.Keep {
		i.timer++
		if i.timer >= i.signal.MaxGreen {
			i.timer = 0
		}
		return nil
	}

	reported, err := gw.CurrentPhase(i.id)
	if err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		log.Warnf("intersection %s: phase query failed, action skipped: %v", i.id, err)
		return nil
	}
	if reported%2 == 1 {
		// 黄灯清空中，切换请求延后到挂起结算
		i.timer++
		return nil
	}
	if i.timer < i.signal.MinGreen {
		i.timer++
		return nil
	}

	if act.Phase == i.phase {
		if err := gw.SetPhaseDuration(i.id, float64(act.Duration)); err != nil {
			if errors.Is(err, entity.ErrConnectionLost) {
				return err
			}
			log.Warnf("intersection %s: duration update failed: %v", i.id, err)
			return nil
		}
		i.timer = 0
		return nil
	}

	// 进入当前相位的黄灯，挂起目标切换
	if err := gw.SetPhase(i.id, reported+1); err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		log.Warnf("intersection %s: yellow command failed: %v", i.id, err)
		return nil
	}
	if err := gw.SetPhaseDuration(i.id, i.signal.Yellow); err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		log.Warnf("intersection %s: yellow duration failed: %v", i.id, err)
	}
	if i.pending != nil {
		log.Debugf("intersection %s: pending switch to phase %d overwritten by phase %d",
			i.id, i.pending.targetPhase, act.Phase*2)
	}
	i.pending = &pendingSwitch{targetPhase: act.Phase * 2, duration: act.Duration}
	i.timer = 0
	return nil
}

// resolve 仿真器推进后结算挂起的延迟切换
// 功能：若存在挂起切换且仿真器已回到偶数（绿灯）相位，则写入目标相位
// 与时长并删除挂起记录，计时归零
// 说明：仿真器仍处于黄灯时保持挂起，等待后续tick
func (i *Intersection) resolve(gw entity.IGateway) error {
	if i.pending == nil {
		return nil
	}
	reported, err := gw.CurrentPhase(i.id)
	if err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		log.Warnf("intersection %s: phase query failed, pending kept: %v", i.id, err)
		return nil
	}
	if reported%2 == 1 {
		return nil
	}
	if err := gw.SetPhase(i.id, i.pending.targetPhase); err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		log.Warnf("intersection %s: pending phase command failed: %v", i.id, err)
		return nil
	}
	if err := gw.SetPhaseDuration(i.id, float64(i.pending.duration)); err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		log.Warnf("intersection %s: pending duration command failed: %v", i.id, err)
	}
	i.phase = i.pending.targetPhase / 2
	i.timer = 0
	i.pending = nil
	return nil
}
