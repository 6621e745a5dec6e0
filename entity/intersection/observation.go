package intersection

import (
	"errors"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
)

// 观测装配：每个路口一个定长特征向量
// 说明：向量布局为 车道特征块（排队/等待/速度/占有率/应急标志各laneCap维）
// + 相位/相位时长/压力三个标量 + 邻居特征块（每邻居排队均值与等待均值），
// 总维数 5×laneCap + 3 + 2×neighborCap；各物理量除以固定归一化常数，
// 不足补零、超出截断

// ObservationWidth 观测向量维数
// 参数：laneCap-车道数上限，neighborCap-邻居数上限
func ObservationWidth(laneCap, neighborCap int) int {
	return 5*laneCap + 3 + 2*neighborCap
}

// buildObservation 装配单个路口的观测向量
// 功能：查询受控车道的排队数、累计等待、平均速度、占有率与应急车辆标志，
// 叠加相位状态与压力，再聚合邻居路口的排队/等待均值
// 说明：无可解析车道时返回全零向量（定义的退化情形，不是错误）；
// 单次查询失败该项记零（逐项降级），连接丢失返回错误
func (m *Manager) buildObservation(i *Intersection, reg entity.IEmergencyRegistry) ([]float64, error) {
	c := m.ctx.RuntimeConfig().All
	laneCap := c.Observation.LaneCap
	neighborCap := c.Observation.NeighborCap
	obs := make([]float64, ObservationWidth(laneCap, neighborCap))
	if len(i.lanes) == 0 {
		return obs, nil
	}

	gw := m.ctx.Gateway()
	for j, lane := range i.lanes {
		if j >= laneCap {
			break
		}
		if q, err := gw.LaneQueueLength(lane); err == nil {
			obs[j] = float64(q) / c.Observation.QueueNorm
		} else if errors.Is(err, entity.ErrConnectionLost) {
			return nil, err
		}
		if w, err := gw.LaneWaitingTime(lane); err == nil {
			obs[laneCap+j] = w / c.Observation.WaitingNorm
		} else if errors.Is(err, entity.ErrConnectionLost) {
			return nil, err
		}
		if v, err := gw.LaneMeanSpeed(lane); err == nil {
			obs[2*laneCap+j] = v / c.Observation.SpeedNorm
		} else if errors.Is(err, entity.ErrConnectionLost) {
			return nil, err
		}
		if o, err := gw.LaneOccupancy(lane); err == nil {
			obs[3*laneCap+j] = o / c.Observation.OccupancyNorm
		} else if errors.Is(err, entity.ErrConnectionLost) {
			return nil, err
		}
		flag, err := m.emergencyFlag(lane, reg)
		if err != nil {
			return nil, err
		}
		obs[4*laneCap+j] = flag
	}

	// 相位状态标量
	obs[5*laneCap] = float64(i.phase*2) / float64(c.Signal.NumGreenPhases*2)
	obs[5*laneCap+1] = float64(i.timer) / float64(c.Signal.MaxGreen)
	pressure, err := m.pressure(i)
	if err != nil {
		return nil, err
	}
	obs[5*laneCap+2] = pressure / c.Observation.PressureNorm

	// 邻居特征
	for j, nid := range i.neighbors {
		if j >= neighborCap {
			break
		}
		neighbor, ok := m.data[nid]
		if !ok {
			continue
		}
		queueAvg, waitAvg, err := m.neighborAverages(neighbor)
		if err != nil {
			return nil, err
		}
		obs[5*laneCap+3+2*j] = queueAvg / c.Observation.QueueNorm
		obs[5*laneCap+3+2*j+1] = waitAvg / c.Observation.WaitingNorm
	}
	return obs, nil
}

// emergencyFlag 车道应急车辆标志
// 功能：车道上存在配置的应急类型车辆时置1，同时将该车辆登记到
// 本episode的应急车辆表（奖励加权用）
func (m *Manager) emergencyFlag(lane string, reg entity.IEmergencyRegistry) (float64, error) {
	gw := m.ctx.Gateway()
	classes := m.ctx.RuntimeConfig().All.Reward.EmergencyClasses
	vehs, err := gw.LaneVehicleIDs(lane)
	if err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return 0, err
		}
		return 0, nil
	}
	flag := 0.0
	for _, veh := range vehs {
		cls, err := gw.VehicleClass(veh)
		if err != nil {
			if errors.Is(err, entity.ErrConnectionLost) {
				return 0, err
			}
			continue
		}
		if lo.Contains(classes, cls) {
			reg.Register(veh)
			flag = 1
		}
	}
	return flag, nil
}

// pressure 路口压力：进口车道车辆数之和减出口车道车辆数之和
func (m *Manager) pressure(i *Intersection) (float64, error) {
	gw := m.ctx.Gateway()
	inbound, outbound := 0, 0
	for _, lane := range i.lanes {
		n, err := gw.LaneVehicleCount(lane)
		if err != nil {
			if errors.Is(err, entity.ErrConnectionLost) {
				return 0, err
			}
			continue
		}
		inbound += n
	}
	for _, lane := range i.outLanes {
		n, err := gw.LaneVehicleCount(lane)
		if err != nil {
			if errors.Is(err, entity.ErrConnectionLost) {
				return 0, err
			}
			continue
		}
		outbound += n
	}
	return float64(inbound - outbound), nil
}

// neighborAverages 邻居路口车道的排队数均值与累计等待均值
func (m *Manager) neighborAverages(neighbor *Intersection) (float64, float64, error) {
	if len(neighbor.lanes) == 0 {
		return 0, 0, nil
	}
	gw := m.ctx.Gateway()
	queueSum, waitSum := 0.0, 0.0
	for _, lane := range neighbor.lanes {
		if q, err := gw.LaneQueueLength(lane); err == nil {
			queueSum += float64(q)
		} else if errors.Is(err, entity.ErrConnectionLost) {
			return 0, 0, err
		}
		if w, err := gw.LaneWaitingTime(lane); err == nil {
			waitSum += w
		} else if errors.Is(err, entity.ErrConnectionLost) {
			return 0, 0, err
		}
	}
	n := float64(len(neighbor.lanes))
	return queueSum / n, waitSum / n, nil
}
