package intersection

import (
	"fmt"

	"github.com/tsinghua-fib-lab/trafficrl-oss/clock"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/config"
)

// phaseCall 记录一次相位/时长命令
type phaseCall struct {
	id    string
	phase int
	dur   float64
}

// stubGateway 可编程的仿真器网关桩
type stubGateway struct {
	phases    map[string]int
	lanes     map[string][]string
	links     map[string][]entity.Link
	queues    map[string]int
	waits     map[string]float64
	speeds    map[string]float64
	occupancy map[string]float64
	counts    map[string]int
	laneVehs  map[string][]string
	vehClass  map[string]string
	vehWaits  map[string]float64
	arrived   int

	setPhases    []phaseCall
	setDurations []phaseCall

	err error // 非nil时所有查询/命令返回该错误
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		phases:    make(map[string]int),
		lanes:     make(map[string][]string),
		links:     make(map[string][]entity.Link),
		queues:    make(map[string]int),
		waits:     make(map[string]float64),
		speeds:    make(map[string]float64),
		occupancy: make(map[string]float64),
		counts:    make(map[string]int),
		laneVehs:  make(map[string][]string),
		vehClass:  make(map[string]string),
		vehWaits:  make(map[string]float64),
	}
}

func (g *stubGateway) Start(args []string) error { return g.err }
func (g *stubGateway) Tick() error               { return g.err }
func (g *stubGateway) Connected() bool           { return true }
func (g *stubGateway) Close() error              { return nil }

func (g *stubGateway) TrafficLightIDs() ([]string, error) { return nil, g.err }

func (g *stubGateway) ControlledLanes(id string) ([]string, error) {
	return g.lanes[id], g.err
}

func (g *stubGateway) ControlledLinks(id string) ([]entity.Link, error) {
	return g.links[id], g.err
}

func (g *stubGateway) CurrentPhase(id string) (int, error) {
	return g.phases[id], g.err
}

func (g *stubGateway) SetPhase(id string, phase int) error {
	if g.err != nil {
		return g.err
	}
	g.setPhases = append(g.setPhases, phaseCall{id: id, phase: phase})
	g.phases[id] = phase
	return nil
}

func (g *stubGateway) SetPhaseDuration(id string, seconds float64) error {
	if g.err != nil {
		return g.err
	}
	g.setDurations = append(g.setDurations, phaseCall{id: id, dur: seconds})
	return nil
}

func (g *stubGateway) LaneQueueLength(laneID string) (int, error) {
	return g.queues[laneID], g.err
}

func (g *stubGateway) LaneWaitingTime(laneID string) (float64, error) {
	return g.waits[laneID], g.err
}

func (g *stubGateway) LaneMeanSpeed(laneID string) (float64, error) {
	return g.speeds[laneID], g.err
}

func (g *stubGateway) LaneOccupancy(laneID string) (float64, error) {
	return g.occupancy[laneID], g.err
}

func (g *stubGateway) LaneVehicleCount(laneID string) (int, error) {
	return g.counts[laneID], g.err
}

func (g *stubGateway) LaneVehicleIDs(laneID string) ([]string, error) {
	return g.laneVehs[laneID], g.err
}

func (g *stubGateway) VehicleClass(vehID string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	cls, ok := g.vehClass[vehID]
	if !ok {
		return "", fmt.Errorf("unknown vehicle %s", vehID)
	}
	return cls, nil
}

func (g *stubGateway) VehicleWaitingTime(vehID string) (float64, error) {
	return g.vehWaits[vehID], g.err
}

func (g *stubGateway) VehicleIDs() ([]string, error) { return nil, g.err }

func (g *stubGateway) ArrivedCount() (int, error)  { return g.arrived, g.err }
func (g *stubGateway) DepartedCount() (int, error) { return 0, g.err }

// stubTopology 固定路口列表的拓扑桩
type stubTopology struct {
	ids       []string
	neighbors map[string][]string
}

func (t *stubTopology) Intersections() []string      { return t.ids }
func (t *stubTopology) Neighbors(id string) []string { return t.neighbors[id] }

// stubRegistry 无锁登记表桩（串行测试用）
type stubRegistry struct {
	vehs map[string]bool
}

func newStubRegistry() *stubRegistry {
	return &stubRegistry{vehs: make(map[string]bool)}
}

func (r *stubRegistry) Register(vehID string) { r.vehs[vehID] = true }
func (r *stubRegistry) Known(vehID string) bool {
	return r.vehs[vehID]
}
func (r *stubRegistry) Count() int { return len(r.vehs) }
func (r *stubRegistry) Clear()     { r.vehs = make(map[string]bool) }

// testContext 测试用任务上下文
type testContext struct {
	clk  *clock.Clock
	gw   entity.IGateway
	topo entity.ITopology
	mgr  entity.IIntersectionManager
	rc   *config.RuntimeConfig
}

func (c *testContext) Clock() *clock.Clock                              { return c.clk }
func (c *testContext) Gateway() entity.IGateway                         { return c.gw }
func (c *testContext) Topology() entity.ITopology                       { return c.topo }
func (c *testContext) IntersectionManager() entity.IIntersectionManager { return c.mgr }
func (c *testContext) RuntimeConfig() *config.RuntimeConfig             { return c.rc }

// newTestManager 构建带路口集合的测试管理器
func newTestManager(gw entity.IGateway, ids []string, neighbors map[string][]string) (*Manager, error) {
	rc := config.NewRuntimeConfig(config.Config{})
	ctx := &testContext{
		clk:  clock.New(rc.All.Control.Step),
		gw:   gw,
		topo: &stubTopology{ids: ids, neighbors: neighbors},
		rc:   rc,
	}
	m := NewManager(ctx)
	ctx.mgr = m
	if err := m.Init(); err != nil {
		return nil, err
	}
	if err := m.Reset(); err != nil {
		return nil, err
	}
	return m, nil
}
