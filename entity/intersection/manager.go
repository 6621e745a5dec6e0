package intersection

import (
	"errors"
	"fmt"
	"sort"

	"git.fiblab.net/general/common/v2/parallel"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/action"
)

// Manager 路口管理器
// 功能：持有全部信控路口，按tick推进相位协议、装配观测并计算奖励
// 说明：相位命令在一个tick内按路口ID序串行下发；观测与奖励的装配
// 跨路口并行（网关内部串行化请求）
type Manager struct {
	ctx entity.ITaskContext

	ids           []string
	data          map[string]*Intersection
	intersections []*Intersection

	allLanes []string // 全路网受控车道（去重，拥堵比例计算用）
}

// NewManager 创建路口管理器实例
// 参数：ctx-任务上下文
func NewManager(ctx entity.ITaskContext) *Manager {
	return &Manager{
		ctx:  ctx,
		data: make(map[string]*Intersection),
	}
}

// Init 从路网拓扑建立路口集合
// 功能：为拓扑中的每个信控路口创建相位状态机实例
// 说明：路口数为0时无从训练，返回致命错误
func (m *Manager) Init() error {
	topo := m.ctx.Topology()
	ids := topo.Intersections()
	if len(ids) == 0 {
		return fmt.Errorf("no signalized intersections in topology")
	}
	m.ids = append([]string{}, ids...)
	sort.Strings(m.ids)

	signal := m.ctx.RuntimeConfig().All.Signal
	m.intersections = lo.Map(m.ids, func(id string, _ int) *Intersection {
		return newIntersection(id, topo.Neighbors(id), signal)
	})
	m.data = lo.SliceToMap(m.intersections, func(i *Intersection) (string, *Intersection) {
		return i.id, i
	})
	log.Infof("managing %d intersections", len(m.ids))
	return nil
}

// Reset 重置所有路口并重新解析受控车道
// 功能：仿真器重启后调用；相位状态机回到初始状态，车道集合按新连接
// 重新解析，并重建全路网车道表
func (m *Manager) Reset() error {
	gw := m.ctx.Gateway()
	laneCap := m.ctx.RuntimeConfig().All.Observation.LaneCap
	lanes := make(map[string]bool)
	for _, i := range m.intersections {
		i.reset()
		if err := i.resolveLanes(gw, laneCap); err != nil {
			return err
		}
		for _, lane := range i.lanes {
			lanes[lane] = true
		}
	}
	m.allLanes = lo.Keys(lanes)
	sort.Strings(m.allLanes)
	return nil
}

// IDs 全部路口ID（有序）
func (m *Manager) IDs() []string {
	return m.ids
}

// Get 根据ID获取路口实例，不存在则panic
func (m *Manager) Get(id string) *Intersection {
	if i, ok := m.data[id]; !ok {
		log.Panicf("no id %s in intersection data", id)
		return nil
	} else {
		return i
	}
}

// ApplyActions 将各路口动作写入仿真器
// 功能：按路口ID序串行执行相位协议；仿真器是单一有状态外部资源，
// 必须在推进前完成全部相位命令
// 说明：无动作的路口按keep处理（计时照常递增）
func (m *Manager) ApplyActions(actions map[string]action.Action) error {
	gw := m.ctx.Gateway()
	for _, i := range m.intersections {
		act, ok := actions[i.id]
		if !ok {
			act = action.Action{Kind: action.Keep}
		}
		if err := i.apply(gw, act); err != nil {
			return err
		}
	}
	return nil
}

// ResolvePending 结算黄灯清空完成的延迟切换
// 说明：仿真器推进一步之后、观测装配之前调用
func (m *Manager) ResolvePending() error {
	gw := m.ctx.Gateway()
	for _, i := range m.intersections {
		if err := i.resolve(gw); err != nil {
			return err
		}
	}
	return nil
}

// observeResult 单路口观测装配结果
type observeResult struct {
	id  string
	obs []float64
	err error
}

// Observe 重建所有路口的观测向量
// 功能：跨路口并行装配观测；单次查询失败按零值降级，连接丢失返回
// 已装配完成的部分观测与错误
func (m *Manager) Observe(reg entity.IEmergencyRegistry) (map[string][]float64, error) {
	results := parallel.GoMap(m.intersections, func(i *Intersection) observeResult {
		obs, err := m.buildObservation(i, reg)
		return observeResult{id: i.id, obs: obs, err: err}
	})
	out := make(map[string][]float64, len(results))
	var fatal error
	for _, r := range results {
		if r.err != nil {
			fatal = r.err
			continue
		}
		out[r.id] = r.obs
	}
	return out, fatal
}

// rewardResult 单路口奖励计算结果
type rewardResult struct {
	id     string
	reward float64
	err    error
}

// Rewards 计算所有路口的即时奖励
// 参数：reg-应急车辆登记表，arrived-本tick全局到达车辆数（所有路口共享）
func (m *Manager) Rewards(reg entity.IEmergencyRegistry, arrived int) (map[string]float64, error) {
	results := parallel.GoMap(m.intersections, func(i *Intersection) rewardResult {
		r, err := m.computeReward(i, reg, arrived)
		return rewardResult{id: i.id, reward: r, err: err}
	})
	out := make(map[string]float64, len(results))
	var fatal error
	for _, r := range results {
		if r.err != nil {
			fatal = r.err
			continue
		}
		out[r.id] = r.reward
	}
	return out, fatal
}

// CongestionRatio 拥堵车道比例
// 功能：统计占有率超过阈值的受控车道占全路网受控车道的比例
// 说明：单车道查询失败按未拥堵计；无受控车道时比例为0
func (m *Manager) CongestionRatio() (float64, error) {
	if len(m.allLanes) == 0 {
		return 0, nil
	}
	gw := m.ctx.Gateway()
	threshold := m.ctx.RuntimeConfig().All.Congestion.OccupancyThreshold
	congested := 0
	for _, lane := range m.allLanes {
		occ, err := gw.LaneOccupancy(lane)
		if err != nil {
			if errors.Is(err, entity.ErrConnectionLost) {
				return 0, err
			}
			continue
		}
		if occ > threshold {
			congested++
		}
	}
	return float64(congested) / float64(len(m.allLanes)), nil
}
