package env_test

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/trafficrl-oss/clock"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity"
	"github.com/tsinghua-fib-lab/trafficrl-oss/entity/intersection"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/config"
)

// stubGateway 可编程的仿真器网关桩
type stubGateway struct {
	phases    map[string]int
	lanes     map[string][]string
	links     map[string][]entity.Link
	queues    map[string]int
	waits     map[string]float64
	occupancy map[string]float64
	vehs      []string
	vehWaits  map[string]float64
	arrived   int

	started    bool
	closeCalls int

	err error // 非nil时所有查询/命令返回该错误
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		phases:    make(map[string]int),
		lanes:     make(map[string][]string),
		links:     make(map[string][]entity.Link),
		queues:    make(map[string]int),
		waits:     make(map[string]float64),
		occupancy: make(map[string]float64),
		vehWaits:  make(map[string]float64),
	}
}

func (g *stubGateway) Start(args []string) error {
	if g.err != nil {
		return g.err
	}
	g.started = true
	return nil
}

func (g *stubGateway) Tick() error { return g.err }

func (g *stubGateway) Connected() bool { return g.started }

func (g *stubGateway) Close() error {
	g.closeCalls++
	g.started = false
	return nil
}

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
	g.phases[id] = phase
	return nil
}

func (g *stubGateway) SetPhaseDuration(id string, seconds float64) error { return g.err }

func (g *stubGateway) LaneQueueLength(laneID string) (int, error) {
	return g.queues[laneID], g.err
}

func (g *stubGateway) LaneWaitingTime(laneID string) (float64, error) {
	return g.waits[laneID], g.err
}

func (g *stubGateway) LaneMeanSpeed(laneID string) (float64, error) { return 0, g.err }

func (g *stubGateway) LaneOccupancy(laneID string) (float64, error) {
	return g.occupancy[laneID], g.err
}

func (g *stubGateway) LaneVehicleCount(laneID string) (int, error) { return 0, g.err }

func (g *stubGateway) LaneVehicleIDs(laneID string) ([]string, error) { return nil, g.err }

func (g *stubGateway) VehicleClass(vehID string) (string, error) {
	return "", fmt.Errorf("unknown vehicle %s", vehID)
}

func (g *stubGateway) VehicleWaitingTime(vehID string) (float64, error) {
	return g.vehWaits[vehID], g.err
}

func (g *stubGateway) VehicleIDs() ([]string, error) { return g.vehs, g.err }

func (g *stubGateway) ArrivedCount() (int, error)  { return g.arrived, g.err }
func (g *stubGateway) DepartedCount() (int, error) { return 0, g.err }

// stubTopology 固定路口列表的拓扑桩
type stubTopology struct {
	ids       []string
	neighbors map[string][]string
}

func (t *stubTopology) Intersections() []string      { return t.ids }
func (t *stubTopology) Neighbors(id string) []string { return t.neighbors[id] }

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

// assertable t接口，便于在构建辅助函数中直接断言
type testingT interface {
	assert.TestingT
	Helper()
}

// newTestContext 构建带真实路口管理器的测试上下文
func newTestContext(t testingT, gw *stubGateway, c config.Config, ids []string) *testContext {
	t.Helper()
	rc := config.NewRuntimeConfig(c)
	ctx := &testContext{
		clk:  clock.New(rc.All.Control.Step),
		gw:   gw,
		topo: &stubTopology{ids: ids},
		rc:   rc,
	}
	m := intersection.NewManager(ctx)
	ctx.mgr = m
	assert.Nil(t, m.Init())
	return ctx
}
