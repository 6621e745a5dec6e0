package intersection

import (
	"errors"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
)

// 奖励计算：每tick从车道内容重新计算，不跨tick累积
// 说明：各项独立加权求和，单项查询失败该项记零（逐项降级），
// 连接丢失终止episode

// computeReward 计算单个路口的即时奖励
// 功能：应急/普通车辆等待（按车辆类型优先级加权）、全局到达、平均速度、
// 排队、压力绝对值、频繁切换惩罚六项加权求和
// 参数：reg-应急车辆登记表，arrived-本tick全局到达车辆数
// 算法说明：
// 1. 对受控车道上的每辆车，等待时间乘以其类型的优先级权重；应急类型
//    计入应急项，其余计入普通项；类型查询失败时已登记的应急车辆仍按
//    应急处理
// 2. 到达项为全局量，各路口共享同一贡献
// 3. 相位时长低于阈值时施加固定的频繁切换惩罚
func (m *Manager) computeReward(i *Intersection, reg entity.IEmergencyRegistry, arrived int) (float64, error) {
	c := m.ctx.RuntimeConfig().All.Reward
	gw := m.ctx.Gateway()

	emergencyWaiting, normalWaiting := 0.0, 0.0
	queueTotal := 0
	speedSum, speedLanes := 0.0, 0

	for _, lane := range i.lanes {
		vehs, err := gw.LaneVehicleIDs(lane)
		if err != nil {
			if errors.Is(err, entity.ErrConnectionLost) {
				return 0, err
			}
			vehs = nil
		}
		for _, veh := range vehs {
			wait, err := gw.VehicleWaitingTime(veh)
			if err != nil {
				if errors.Is(err, entity.ErrConnectionLost) {
					return 0, err
				}
				continue
			}
			cls, err := gw.VehicleClass(veh)
			if err != nil {
				if errors.Is(err, entity.ErrConnectionLost) {
					return 0, err
				}
				// 类型不可查时回退登记表：已知应急车辆不因单次失败降级
				if reg.Known(veh) {
					emergencyWaiting += wait * maxEmergencyWeight(c.PriorityWeights, c.EmergencyClasses)
				}
				continue
			}
			weight, ok := c.PriorityWeights[cls]
			if !ok {
				weight = 1
			}
			if lo.Contains(c.EmergencyClasses, cls) {
				reg.Register(veh)
				emergencyWaiting += wait * weight
			} else {
				normalWaiting += wait * weight
			}
		}
		if q, err := gw.LaneQueueLength(lane); err == nil {
			queueTotal += q
		} else if errors.Is(err, entity.ErrConnectionLost) {
			return 0, err
		}
		if v, err := gw.LaneMeanSpeed(lane); err == nil {
			speedSum += v
			speedLanes++
		} else if errors.Is(err, entity.ErrConnectionLost) {
			return 0, err
		}
	}

	meanSpeed := 0.0
	if speedLanes > 0 {
		meanSpeed = speedSum / float64(speedLanes)
	}
	pressure, err := m.pressure(i)
	if err != nil {
		return 0, err
	}
	if pressure < 0 {
		pressure = -pressure
	}

	reward := c.EmergencyWaiting*emergencyWaiting +
		c.NormalWaiting*normalWaiting +
		c.Throughput*float64(arrived) +
		c.Speed*meanSpeed +
		c.Queue*float64(queueTotal) +
		c.Pressure*pressure
	if i.timer < c.PhaseChangeThreshold {
		reward += c.PhaseChange
	}
	return reward, nil
}

// maxEmergencyWeight 应急类型中的最大优先级权重
func maxEmergencyWeight(weights map[string]float64, classes []string) float64 {
	max := 1.0
	for _, cls := range classes {
		if w, ok := weights[cls]; ok && w > max {
			max = w
		}
	}
	return max
}
