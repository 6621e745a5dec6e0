package env

import (
	"errors"

	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
)

// Metrics episode级指标累积器
// 说明：每tick更新，reset时清零；用于episode结束时的汇总日志与输出
type Metrics struct {
	TotalWaiting    float64 // 在网车辆当前等待时间的逐tick累积（秒）
	Throughput      int     // 累计到达（完成行程）车辆数
	CongestionLevel float64 // 最近一次tick的拥堵车道比例
	EmergencySeen   int     // 本episode登记过的应急车辆数
}

// reset 清零全部指标
func (m *Metrics) reset() {
	*m = Metrics{}
}

// update 用当前tick的仿真状态更新指标
// 参数：arrived-本tick到达车辆数，congestion-本tick拥堵车道比例
// 说明：等待时间统计失败时本tick记零（降级），连接丢失返回错误
func (m *Metrics) update(gw entity.IGateway, arrived int, congestion float64) error {
	m.Throughput += arrived
	m.CongestionLevel = congestion
	vehs, err := gw.VehicleIDs()
	if err != nil {
		if errors.Is(err, entity.ErrConnectionLost) {
			return err
		}
		return nil
	}
	for _, veh := range vehs {
		w, err := gw.VehicleWaitingTime(veh)
		if err != nil {
			if errors.Is(err, entity.ErrConnectionLost) {
				return err
			}
			continue
		}
		m.TotalWaiting += w
	}
	return nil
}
